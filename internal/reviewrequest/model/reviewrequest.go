package model

import (
	"time"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// Review request lifecycle statuses, stored as single characters.
const (
	StatusPending   = "P"
	StatusSubmitted = "S"
	StatusDiscarded = "D"
)

// ParseStatus converts an API status string to its stored character.
// Returns false for unknown values.
func ParseStatus(status string) (string, bool) {
	switch status {
	case "pending":
		return StatusPending, true
	case "submitted":
		return StatusSubmitted, true
	case "discarded":
		return StatusDiscarded, true
	default:
		return "", false
	}
}

// StatusString converts a stored status character to its API string.
func StatusString(status string) string {
	switch status {
	case StatusPending:
		return "pending"
	case StatusSubmitted:
		return "submitted"
	case StatusDiscarded:
		return "discarded"
	default:
		return status
	}
}

// ReviewRequest represents a proposed change under review.
// Matches the review_requests table schema.
//
// A request starts as a non-public draft. Publishing makes it visible;
// later edits accumulate in a ReviewRequestDraft until published again.
type ReviewRequest struct {
	ID          uint64  `gorm:"primaryKey;column:id"                                     json:"id"`
	LocalID     *uint64 `gorm:"column:local_id;index:idx_review_requests_local"          json:"-"`
	LocalSiteID *uint64 `gorm:"column:local_site_id;index:idx_review_requests_local"     json:"-"`

	SubmitterID uint64             `gorm:"column:submitter_id;not null;index:idx_review_requests_submitter" json:"-"`
	Submitter   identityModel.User `gorm:"foreignKey:SubmitterID"                                           json:"-"`

	Status string `gorm:"column:status;type:varchar(1);not null;index:idx_review_requests_status" json:"-"`
	Public bool   `gorm:"column:public;not null;default:false"                                    json:"public"`

	Summary     string `gorm:"column:summary;type:varchar(300);not null"  json:"summary"`
	Description string `gorm:"column:description;type:text;not null"      json:"description"`

	RepositoryID *uint64 `gorm:"column:repository_id"                      json:"-"`
	Changenum    *uint64 `gorm:"column:changenum"                          json:"changenum,omitempty"`
	CommitID     *string `gorm:"column:commit_id;type:varchar(64)"         json:"commit_id,omitempty"`

	TimeAdded   time.Time `gorm:"column:time_added;not null;autoCreateTime"   json:"time_added"`
	LastUpdated time.Time `gorm:"column:last_updated;not null;autoUpdateTime" json:"last_updated"`

	ShipItCount int `gorm:"column:shipit_count;not null;default:0" json:"ship_it_count"`

	TargetGroups []groupModel.Group   `gorm:"many2many:review_request_target_groups" json:"-"`
	TargetPeople []identityModel.User `gorm:"many2many:review_request_target_people" json:"-"`
}

// TableName specifies the table name for GORM.
func (ReviewRequest) TableName() string {
	return "review_requests"
}

// DisplayID returns the identifier shown in URLs: the site-scoped local id
// when the request belongs to a local site, the global id otherwise.
func (r *ReviewRequest) DisplayID() uint64 {
	if r.LocalSiteID != nil && r.LocalID != nil {
		return *r.LocalID
	}
	return r.ID
}

// IsTargetedAt reports whether the user is individually targeted by the
// request. TargetPeople must be preloaded.
func (r *ReviewRequest) IsTargetedAt(userID uint64) bool {
	for i := range r.TargetPeople {
		if r.TargetPeople[i].ID == userID {
			return true
		}
	}
	return false
}
