package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"password_hash"`
	Role         string `gorm:"default:user" json:"role"` // user, admin
	DisplayName  string `json:"display_name"`             // name put on relayed result emails
}

type UserProgress struct {
	gorm.Model
	UserID           uint
	LastActive       time.Time
	StreakDays       int `gorm:"default:0"`
	QuizzesCompleted int `gorm:"default:0"`
}

type LoginHistory struct {
	gorm.Model
	UserID    uint
	LoginTime time.Time
}
