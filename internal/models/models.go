package models

import (
	"time"

	"github.com/Cleamaster322/library/pkg/tokens"
)

type User struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"        json:"id"`
	Username     string      `gorm:"uniqueIndex;size:150;not null"   json:"username"`
	Email        string      `gorm:"size:254"                        json:"email,omitempty"`
	PasswordHash string      `gorm:"not null"                        json:"-"`
	Role         tokens.Role `gorm:"size:16;not null;default:user"   json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

type Genre struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:100;not null"        json:"name"`
}

type Book struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string    `gorm:"size:255;not null"         json:"title"`
	Author      string    `gorm:"size:255;not null;index"   json:"author"`
	Description string    `gorm:"type:text"                 json:"description"`
	Genres      []Genre   `gorm:"many2many:book_genres;"    json:"genres"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BlacklistedToken is a revoked refresh token, kept until its own expiry.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"                     json:"id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null"   json:"jti"`
	UserID    string    `gorm:"size:64;index"                  json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null"                 json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func All() []any {
	return []any{&User{}, &Genre{}, &Book{}, &BlacklistedToken{}}
}
