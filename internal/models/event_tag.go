package models

// EventTag links an event to a tag. The composite primary key rules out
// duplicate links.
type EventTag struct {
	EventID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey;index"`
}

func (EventTag) TableName() string {
	return "event_tag"
}
