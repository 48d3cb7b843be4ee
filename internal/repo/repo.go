package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Cleamaster322/library/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrGenreNotFound     = errors.New("genre not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
