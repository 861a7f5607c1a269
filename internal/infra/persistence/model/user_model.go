// Package model holds the GORM persistence models. They mirror the database
// schema and are mapped to and from pure domain entities at the repository
// boundary.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via gen_random_uuid().
type UserModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username      string    `gorm:"type:varchar(64);unique;not null"`
	Email         string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash  string    `gorm:"type:varchar(255);not null"`
	Role          string    `gorm:"type:varchar(16);not null;default:'user'"`
	EncryptionKey string    `gorm:"type:varchar(64);not null;default:''"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	SensitiveData *SensitiveDataModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// SensitiveDataModel mirrors the 'user_sensitive_data' table. Both columns hold
// ciphertext produced with the owning user's data key; the database never sees
// the plaintext.
type SensitiveDataModel struct {
	UserID                uuid.UUID `gorm:"primaryKey;type:uuid"`
	EncryptedBio          string    `gorm:"type:text;not null;default:''"`
	EncryptedRefreshToken string    `gorm:"type:text;not null;default:''"`
	UpdatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (SensitiveDataModel) TableName() string {
	return "user_sensitive_data"
}
