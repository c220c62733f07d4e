package model

import (
	"time"

	"gorm.io/gorm"

	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// Group represents a review group that review requests can target.
// Matches the review_groups table schema.
type Group struct {
	ID          uint64               `gorm:"primaryKey;column:id"                                      json:"id"`
	Name        string               `gorm:"column:name;type:varchar(255);not null;uniqueIndex"        json:"name"`
	DisplayName string               `gorm:"column:display_name;type:varchar(255);not null"            json:"display_name"`
	InviteOnly  bool                 `gorm:"column:invite_only;not null;default:false"                 json:"invite_only"`
	LocalSiteID *uint64              `gorm:"column:local_site_id;index:idx_review_groups_site"         json:"-"`
	Users       []identityModel.User `gorm:"many2many:review_group_users"                              json:"-"`
	CreatedAt   time.Time            `gorm:"column:created_at;not null;autoCreateTime"                 json:"-"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;not null;autoUpdateTime"                 json:"-"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "review_groups"
}

// BeforeUpdate updates the UpdatedAt timestamp before saving.
func (g *Group) BeforeUpdate(tx *gorm.DB) error {
	g.UpdatedAt = time.Now()
	return nil
}

// IsMember reports whether the given user belongs to the group.
// Users must be preloaded.
func (g *Group) IsMember(userID uint64) bool {
	for i := range g.Users {
		if g.Users[i].ID == userID {
			return true
		}
	}
	return false
}
