// Package model provides domain models for the site module.
package model

import (
	"errors"
	"time"

	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// ErrSiteNotFound indicates that the requested local site does not exist.
var ErrSiteNotFound = errors.New("local site not found")

// LocalSite partitions resources and access for a subset of users.
// Matches the local_sites table schema.
type LocalSite struct {
	ID        uint64               `gorm:"primaryKey;column:id"                                      json:"id"`
	Name      string               `gorm:"column:name;type:varchar(255);not null;uniqueIndex"        json:"name"`
	Users     []identityModel.User `gorm:"many2many:local_site_users"                                json:"-"`
	CreatedAt time.Time            `gorm:"column:created_at;not null;autoCreateTime"                 json:"-"`
}

// TableName specifies the table name for GORM.
func (LocalSite) TableName() string {
	return "local_sites"
}

// IsMember reports whether the given user belongs to the site.
// Users must be preloaded.
func (s *LocalSite) IsMember(userID uint64) bool {
	for i := range s.Users {
		if s.Users[i].ID == userID {
			return true
		}
	}
	return false
}
