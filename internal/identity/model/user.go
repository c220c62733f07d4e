package model

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
// Matches the users table schema.
type User struct {
	ID          uint64    `gorm:"primaryKey;column:id"                                      json:"id"`
	Username    string    `gorm:"column:username;type:varchar(255);not null;uniqueIndex"    json:"username"`
	DisplayName string    `gorm:"column:display_name;type:varchar(255);not null"            json:"display_name"`
	Email       string    `gorm:"column:email;type:varchar(255)"                            json:"email,omitempty"`
	Password    string    `gorm:"column:password;type:varchar(255);not null"                json:"-"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"                    json:"is_active"`
	IsAdmin     bool      `gorm:"column:is_admin;not null;default:false"                    json:"is_admin"`
	CanDelete   bool      `gorm:"column:can_delete_review_requests;not null;default:false"  json:"-"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"                 json:"-"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime"                 json:"-"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// SetPassword stores a hashed password on the user.
func (u *User) SetPassword(plain string) {
	u.Password = hashPassword(plain)
}

// CheckPassword reports whether plain matches the stored password hash.
func (u *User) CheckPassword(plain string) bool {
	hashed := hashPassword(plain)
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(hashed)) == 1
}

func hashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
