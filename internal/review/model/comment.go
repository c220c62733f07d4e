package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Issue states stored on a comment, as single characters. An empty value
// means the comment does not track an issue.
const (
	IssueOpen     = "O"
	IssueResolved = "R"
	IssueDropped  = "D"
)

// ParseIssueStatus converts an API issue status string to its stored
// character. Returns false for unknown values.
func ParseIssueStatus(status string) (string, bool) {
	switch status {
	case "open":
		return IssueOpen, true
	case "resolved":
		return IssueResolved, true
	case "dropped":
		return IssueDropped, true
	default:
		return "", false
	}
}

// IssueStatusString converts a stored issue status character to its API
// string.
func IssueStatusString(status string) string {
	switch status {
	case IssueOpen:
		return "open"
	case IssueResolved:
		return "resolved"
	case IssueDropped:
		return "dropped"
	default:
		return ""
	}
}

// JSONMap is a free-form JSON object column. Updates merge key by key
// rather than replacing the whole map.
type JSONMap map[string]interface{}

// Value implements driver.Valuer for JSON column storage.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for extra_data: %T", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Merge overlays the other map onto this one, key by key.
func (m JSONMap) Merge(other JSONMap) {
	for k, v := range other {
		m[k] = v
	}
}

// DiffComment is a comment anchored to a line range of a file diff,
// optionally comparing against a second diff revision.
type DiffComment struct {
	ID       uint64 `gorm:"primaryKey;column:id"                               json:"id"`
	ReviewID uint64 `gorm:"column:review_id;not null;index:idx_comments_review" json:"-"`

	FileDiffID      uint64  `gorm:"column:filediff_id;not null" json:"-"`
	InterFileDiffID *uint64 `gorm:"column:interfilediff_id"     json:"-"`

	Text      string `gorm:"column:text;type:text;not null"       json:"text"`
	FirstLine uint64 `gorm:"column:first_line;not null"           json:"first_line"`
	NumLines  uint64 `gorm:"column:num_lines;not null"            json:"num_lines"`

	IssueOpened bool   `gorm:"column:issue_opened;not null;default:false" json:"issue_opened"`
	IssueStatus string `gorm:"column:issue_status;type:varchar(1)"        json:"-"`

	ExtraData JSONMap `gorm:"column:extra_data;type:text" json:"extra_data"`

	Timestamp time.Time `gorm:"column:timestamp;not null;autoCreateTime" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (DiffComment) TableName() string {
	return "diff_comments"
}
