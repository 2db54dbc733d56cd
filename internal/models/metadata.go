package models

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// Metadata is free-form JSON stored alongside orders and transactions.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}
	return json.Unmarshal(data, m)
}
