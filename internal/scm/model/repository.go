// Package model provides domain models for the scm module.
package model

import (
	"errors"
	"time"
)

// ErrRepositoryNotFound indicates that no repository matches the given
// path or name.
var ErrRepositoryNotFound = errors.New("repository not found")

// Repository represents a source code repository that review requests
// can be filed against. Matches the repositories table schema.
type Repository struct {
	ID          uint64    `gorm:"primaryKey;column:id"                                      json:"id"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"                    json:"name"`
	Path        string    `gorm:"column:path;type:varchar(255);not null"                    json:"path"`
	Tool        string    `gorm:"column:tool;type:varchar(64);not null"                     json:"tool"`
	LocalSiteID *uint64   `gorm:"column:local_site_id;index:idx_repositories_site"          json:"-"`
	Visible     bool      `gorm:"column:visible;not null;default:true"                      json:"visible"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"                 json:"-"`
}

// TableName specifies the table name for GORM.
func (Repository) TableName() string {
	return "repositories"
}
