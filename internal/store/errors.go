package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the referenced event or tag does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a storage constraint,
	// such as a duplicate tag name.
	ErrConflict = errors.New("constraint violation")
)

// translate maps gorm errors onto the store's error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrConflict
	default:
		return err
	}
}
