package entity

import (
	"time"
)

// User is a registered account. PasswordHash is a bcrypt digest and is
// never serialized.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Email        string    `json:"email" gorm:"size:256;not null;uniqueIndex"`
	Username     string    `json:"username" gorm:"size:64;not null"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
