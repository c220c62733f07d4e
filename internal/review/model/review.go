package model

import (
	"time"

	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// Review is a single reviewer's pass over a review request. It starts as a
// private draft owned by its author and becomes immutable once published.
type Review struct {
	ID              uint64 `gorm:"primaryKey;column:id" json:"id"`
	ReviewRequestID uint64 `gorm:"column:review_request_id;not null;index:idx_reviews_request;uniqueIndex:idx_reviews_one_draft,where:public = false" json:"-"`

	UserID uint64             `gorm:"column:user_id;not null;uniqueIndex:idx_reviews_one_draft" json:"-"`
	User   identityModel.User `gorm:"foreignKey:UserID"                                         json:"-"`

	Public bool `gorm:"column:public;not null;default:false"  json:"public"`
	ShipIt bool `gorm:"column:ship_it;not null;default:false" json:"ship_it"`

	BodyTop    string `gorm:"column:body_top;type:text;not null"    json:"body_top"`
	BodyBottom string `gorm:"column:body_bottom;type:text;not null" json:"body_bottom"`

	Timestamp time.Time `gorm:"column:timestamp;not null;autoCreateTime" json:"timestamp"`

	Comments []DiffComment `gorm:"foreignKey:ReviewID" json:"-"`
}

// TableName specifies the table name for GORM.
func (Review) TableName() string {
	return "reviews"
}
