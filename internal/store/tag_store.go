package store

import (
	"context"
	"fmt"

	"warcalendar/backend/internal/models"

	"gorm.io/gorm"
)

// TagStore persists tags.
type TagStore struct {
	db *gorm.DB
}

func NewTagStore(db *gorm.DB) *TagStore {
	return &TagStore{db: db}
}

// Create inserts a tag. Uniqueness is left to the database; a duplicate
// name comes back as ErrConflict.
func (s *TagStore) Create(ctx context.Context, name string) (models.Tag, error) {
	tag := models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return models.Tag{}, fmt.Errorf("create tag %q: %w", name, translate(err))
	}
	return tag, nil
}

func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *TagStore) Get(ctx context.Context, id uint) (models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return models.Tag{}, fmt.Errorf("get tag %d: %w", id, translate(err))
	}
	return tag, nil
}

// FindByName looks a tag up by its exact name.
func (s *TagStore) FindByName(ctx context.Context, name string) (models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return models.Tag{}, fmt.Errorf("find tag %q: %w", name, translate(err))
	}
	return tag, nil
}

func (s *TagStore) Update(ctx context.Context, id uint, name string) (models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&tag).Update("name", name).Error; err != nil {
			return err
		}
		tag.Name = name
		return nil
	})
	if err != nil {
		return models.Tag{}, fmt.Errorf("update tag %d: %w", id, translate(err))
	}
	return tag, nil
}

// Delete removes the tag together with its event_tag rows.
func (s *TagStore) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.EventTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, translate(err))
	}
	return nil
}
