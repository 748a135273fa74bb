package models

import "time"

// Event is a calendar-anchored record (holiday, anniversary, ...) with a date range.
type Event struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"not null"`
	Type        string    `gorm:"not null;index"`
	StartDate   time.Time `gorm:"not null;index"`
	EndDate     time.Time `gorm:"not null;index"`
	Description *string
	ImageURL    *string
	SourceURL   *string
	CreatedAt   time.Time `gorm:"autoCreateTime;<-:create"`

	Tags []*Tag `gorm:"many2many:event_tag;"`
}
