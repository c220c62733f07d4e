package model

import "time"

// DiffSet is an immutable, versioned snapshot of a patch. A review request
// owns an ordered sequence of diffsets by revision number.
// Matches the diffsets table schema.
type DiffSet struct {
	ID              uint64     `gorm:"primaryKey;column:id"                                       json:"id"`
	ReviewRequestID uint64     `gorm:"column:review_request_id;not null;index:idx_diffsets_rr"    json:"-"`
	Revision        int        `gorm:"column:revision;not null"                                   json:"revision"`
	Name            string     `gorm:"column:name;type:varchar(255);not null"                     json:"name"`
	Basedir         string     `gorm:"column:basedir;type:varchar(255);not null"                  json:"basedir"`
	BaseCommitID    string     `gorm:"column:base_commit_id;type:varchar(64)"                     json:"base_commit_id,omitempty"`
	Draft           bool       `gorm:"column:draft;not null;default:true"                         json:"-"`
	Timestamp       time.Time  `gorm:"column:timestamp;not null;autoCreateTime"                   json:"timestamp"`
	FileDiffs       []FileDiff `gorm:"foreignKey:DiffSetID"                                       json:"-"`
}

// TableName specifies the table name for GORM.
func (DiffSet) TableName() string {
	return "diffsets"
}

// FileDiff is the per-file component of a DiffSet.
// Matches the filediffs table schema.
type FileDiff struct {
	ID             uint64 `gorm:"primaryKey;column:id"                                    json:"id"`
	DiffSetID      uint64 `gorm:"column:diffset_id;not null;index:idx_filediffs_diffset" json:"-"`
	SourceFile     string `gorm:"column:source_file;type:varchar(1024);not null"         json:"source_file"`
	DestFile       string `gorm:"column:dest_file;type:varchar(1024);not null"           json:"dest_file"`
	SourceRevision string `gorm:"column:source_revision;type:varchar(64)"                json:"source_revision"`
	Diff           string `gorm:"column:diff;type:text;not null"                         json:"-"`
}

// TableName specifies the table name for GORM.
func (FileDiff) TableName() string {
	return "filediffs"
}
