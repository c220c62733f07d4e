package model

import "time"

// Session represents an authenticated browser/API session.
// Matches the sessions table schema.
//
// ExternalLogin and ExternalCookie hold the external bug-tracker credential
// pair for sessions established through cookie delegation. They are a simple
// present-or-absent pair: set on successful external authentication, removed
// when the session is deleted on logout.
type Session struct {
	Token          string    `gorm:"primaryKey;column:token;type:varchar(64)"                  json:"token"`
	UserID         uint64    `gorm:"column:user_id;not null;index:idx_sessions_user_id"        json:"-"`
	ExternalLogin  string    `gorm:"column:external_login;type:varchar(255)"                   json:"-"`
	ExternalCookie string    `gorm:"column:external_cookie;type:varchar(255)"                  json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"                 json:"-"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null"                                json:"-"`
}

// TableName specifies the table name for GORM.
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry time.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
