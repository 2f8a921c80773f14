package entities

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserRecord is one registered account.
type UserRecord struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	MobileNumber string    `gorm:"size:20" json:"mobileNumber"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (UserRecord) TableName() string { return "userRecords" }

// BeforeSave refuses rows that would break the table's invariants.
func (u *UserRecord) BeforeSave(tx *gorm.DB) (err error) {
	if u.Name == "" || u.Username == "" || u.Email == "" {
		return errors.New("name, username and email are required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
