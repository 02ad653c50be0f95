// File: internal/domain/user.go
package domain

import (
	"errors"
	"strings"
	"time"
)

// DefaultTargetLanguage is used until a user's preference is known.
const DefaultTargetLanguage = "en"

// User is the backend user record plus the locally cached preference.
type User struct {
	UID            string    `json:"uid" gorm:"primaryKey;size:128"`
	Username       string    `json:"username" gorm:"size:64"`
	Email          string    `json:"email" gorm:"size:255"`
	TargetLanguage string    `json:"target_language" gorm:"size:16;not null;default:en"`
	CreationTime   string    `json:"creation_time,omitempty" gorm:"-"`
	LastUpdate     string    `json:"last_update,omitempty" gorm:"-"`
	CachedAt       time.Time `json:"-"`
}

func (u *User) IsValid() error {
	if strings.TrimSpace(u.UID) == "" {
		return errors.New("uid is required")
	}
	if len(u.Username) > 64 {
		return errors.New("username must be at most 64 characters")
	}
	return nil
}

// Language returns the preferred target language or the default.
func (u *User) Language() string {
	if u == nil || strings.TrimSpace(u.TargetLanguage) == "" {
		return DefaultTargetLanguage
	}
	return u.TargetLanguage
}
