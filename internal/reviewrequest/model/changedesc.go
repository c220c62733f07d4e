package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldChange records a single field transition in a change description.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// FieldsChanged maps field names to their transitions. Stored as JSON.
type FieldsChanged map[string]FieldChange

// Value implements driver.Valuer for JSON column storage.
func (f FieldsChanged) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *FieldsChanged) Scan(value interface{}) error {
	if value == nil {
		*f = FieldsChanged{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for fields_changed: %T", value)
	}
	if len(data) == 0 {
		*f = FieldsChanged{}
		return nil
	}
	return json.Unmarshal(data, f)
}

// ChangeDescription is the audit record written when an already-public
// review request is republished with modified fields.
type ChangeDescription struct {
	ID              uint64 `gorm:"primaryKey;column:id"                                                     json:"id"`
	ReviewRequestID uint64 `gorm:"column:review_request_id;not null;index:idx_change_descriptions_request"  json:"-"`

	Text          string        `gorm:"column:text;type:text;not null"          json:"text"`
	FieldsChanged FieldsChanged `gorm:"column:fields_changed;type:text;not null" json:"fields_changed"`

	Timestamp time.Time `gorm:"column:timestamp;not null;autoCreateTime" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (ChangeDescription) TableName() string {
	return "change_descriptions"
}
