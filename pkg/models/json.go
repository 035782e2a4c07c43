package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap maps an open key/value payload onto a JSONB column.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as SQL NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(raw, m)
}
