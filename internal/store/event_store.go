package store

import (
	"context"
	"fmt"
	"time"

	"warcalendar/backend/internal/models"

	"gorm.io/gorm"
)

// EventFields are the attributes supplied when creating an event.
type EventFields struct {
	Title       string
	Type        string
	StartDate   time.Time
	EndDate     time.Time
	Description *string
	ImageURL    *string
	SourceURL   *string
}

// EventPatch is a partial update. Nil fields are left unchanged.
// A non-nil TagIDs replaces the whole tag set, so an empty slice clears it.
type EventPatch struct {
	Title       *string
	Type        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Description *string
	ImageURL    *string
	SourceURL   *string
	TagIDs      *[]uint
}

// EventFilter narrows List. Zero-valued fields do not filter; the rest
// are combined with AND.
type EventFilter struct {
	Type     string
	FromDate *time.Time
	ToDate   *time.Time
	Active   bool
	Tag      string
}

// EventStore persists events and their tag links.
type EventStore struct {
	db  *gorm.DB
	now func() time.Time
}

type EventStoreOption func(*EventStore)

// WithClock overrides the clock used by the active filter.
func WithClock(now func() time.Time) EventStoreOption {
	return func(s *EventStore) { s.now = now }
}

func NewEventStore(db *gorm.DB, opts ...EventStoreOption) *EventStore {
	s := &EventStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id")
	})
}

// findTags resolves ids to existing tags. Unknown ids are dropped.
func findTags(tx *gorm.DB, ids []uint) ([]*models.Tag, error) {
	tags := []*models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := tx.Where("id IN ?", ids).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Create inserts an event linked to whichever of tagIDs exist.
func (s *EventStore) Create(ctx context.Context, f EventFields, tagIDs []uint) (models.Event, error) {
	event := models.Event{
		Title:       f.Title,
		Type:        f.Type,
		StartDate:   normalize(f.StartDate),
		EndDate:     normalize(f.EndDate),
		Description: f.Description,
		ImageURL:    f.ImageURL,
		SourceURL:   f.SourceURL,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := findTags(tx, tagIDs)
		if err != nil {
			return err
		}
		event.Tags = tags
		// Tags already exist; only the event and its join rows are written.
		return tx.Omit("Tags.*").Create(&event).Error
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("create event: %w", translate(err))
	}
	return event, nil
}

func (s *EventStore) Get(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := preloadTags(s.db.WithContext(ctx)).First(&event, id).Error; err != nil {
		return models.Event{}, fmt.Errorf("get event %d: %w", id, translate(err))
	}
	return event, nil
}

// List returns the events matching every set field of f, each once.
func (s *EventStore) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Event{})

	if f.Type != "" {
		q = q.Where("events.type = ?", f.Type)
	}
	if f.FromDate != nil {
		q = q.Where("events.start_date >= ?", normalize(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("events.end_date <= ?", normalize(*f.ToDate))
	}
	if f.Active {
		now := normalize(s.now())
		q = q.Where("events.start_date <= ? AND events.end_date >= ?", now, now)
	}
	if f.Tag != "" {
		// A subquery rather than a join keeps events with several
		// tags from appearing more than once.
		tagged := db.Table("event_tag").
			Select("event_tag.event_id").
			Joins("JOIN tags ON tags.id = event_tag.tag_id").
			Where("tags.name = ?", f.Tag)
		q = q.Where("events.id IN (?)", tagged)
	}

	events := []models.Event{}
	if err := preloadTags(q).Order("events.id").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update applies the set fields of p to event id.
func (s *EventStore) Update(ctx context.Context, id uint, p EventPatch) (models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}

		if updates := p.columns(); len(updates) > 0 {
			if err := tx.Model(&event).Updates(updates).Error; err != nil {
				return err
			}
		}

		if p.TagIDs != nil {
			tags, err := findTags(tx, *p.TagIDs)
			if err != nil {
				return err
			}
			assoc := tx.Model(&event).Association("Tags")
			if len(tags) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(tags)
			}
			if err != nil {
				return err
			}
		}

		var fresh models.Event
		if err := preloadTags(tx).First(&fresh, id).Error; err != nil {
			return err
		}
		event = fresh
		return nil
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("update event %d: %w", id, translate(err))
	}
	return event, nil
}

func (p EventPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Type != nil {
		cols["type"] = *p.Type
	}
	if p.StartDate != nil {
		cols["start_date"] = normalize(*p.StartDate)
	}
	if p.EndDate != nil {
		cols["end_date"] = normalize(*p.EndDate)
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.SourceURL != nil {
		cols["source_url"] = *p.SourceURL
	}
	return cols
}

// Delete removes the event together with its event_tag rows.
func (s *EventStore) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, translate(err))
	}
	return nil
}
