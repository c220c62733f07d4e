package model

import (
	"time"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// ReviewRequestDraft collects pending edits to a review request. Field
// pointers distinguish "not set" from "set to empty": nil means the field
// keeps its published value.
type ReviewRequestDraft struct {
	ID              uint64 `gorm:"primaryKey;column:id"                                 json:"id"`
	ReviewRequestID uint64 `gorm:"column:review_request_id;not null;uniqueIndex"        json:"-"`

	Summary     *string `gorm:"column:summary;type:varchar(300)" json:"summary,omitempty"`
	Description *string `gorm:"column:description;type:text"     json:"description,omitempty"`

	Changenum *uint64 `gorm:"column:changenum"                  json:"changenum,omitempty"`
	CommitID  *string `gorm:"column:commit_id;type:varchar(64)" json:"commit_id,omitempty"`

	DiffSetID *uint64 `gorm:"column:diffset_id" json:"-"`

	// ChangeText becomes the change description body when the draft is
	// published over an already-public request.
	ChangeText *string `gorm:"column:change_text;type:text" json:"change_text,omitempty"`

	LastUpdated time.Time `gorm:"column:last_updated;not null;autoUpdateTime" json:"last_updated"`

	TargetGroupsSet bool                 `gorm:"column:target_groups_set;not null;default:false" json:"-"`
	TargetPeopleSet bool                 `gorm:"column:target_people_set;not null;default:false" json:"-"`
	TargetGroups    []groupModel.Group   `gorm:"many2many:review_request_draft_target_groups"    json:"-"`
	TargetPeople    []identityModel.User `gorm:"many2many:review_request_draft_target_people"    json:"-"`
}

// TableName specifies the table name for GORM.
func (ReviewRequestDraft) TableName() string {
	return "review_request_drafts"
}

// IsEmpty reports whether the draft carries no changes at all.
func (d *ReviewRequestDraft) IsEmpty() bool {
	return d.Summary == nil && d.Description == nil &&
		d.Changenum == nil && d.CommitID == nil &&
		d.DiffSetID == nil && !d.TargetGroupsSet && !d.TargetPeopleSet
}
