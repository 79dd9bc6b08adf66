package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	FullName        string    `gorm:"type:varchar(255)" json:"full_name"`
	CompleteAddress string    `gorm:"type:text" json:"complete_address"`
	CellphoneNumber string    `gorm:"type:varchar(20)" json:"cellphone_number"`
	ImageURL        string    `gorm:"type:varchar(200)" json:"image_url"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	IsStaff         bool      `gorm:"default:false" json:"is_staff"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Profile is created together with its User in the same transaction.
// There is no hook-based auto-creation.
type Profile struct {
	ID                       string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID                   string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	ResetPasswordToken       string     `gorm:"type:varchar(255)" json:"-"`
	ResetPasswordTokenExpiry *time.Time `json:"-"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
