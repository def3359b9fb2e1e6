package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringSlice is a helper type for storing []string as JSONB in PostgreSQL.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("StringSlice.Scan: type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, s)
}

// Recipe is a single recipe record. Only id, name and ingredients are part of
// the wire format; the remaining fields are storage bookkeeping.
type Recipe struct {
	ID          string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string      `gorm:"type:varchar(512);not null" json:"name"`
	Ingredients StringSlice `gorm:"type:jsonb;not null" json:"ingredients"`
	Seq         int64       `gorm:"autoIncrement;uniqueIndex" json:"-"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`
}

func (Recipe) TableName() string { return "recipes" }

// Clone returns a copy that shares no memory with r.
func (r Recipe) Clone() Recipe {
	out := r
	if r.Ingredients != nil {
		out.Ingredients = append(StringSlice(nil), r.Ingredients...)
	}
	return out
}
