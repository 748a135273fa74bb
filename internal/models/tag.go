package models

// Tag is a named label (a reward, a country, ...) attachable to many events.
// The events carrying a tag are found through event_tag, not a back-pointer.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;unique;not null"`
}
