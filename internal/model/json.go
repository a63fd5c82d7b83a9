package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSON holds an opaque JSON document. It is stored as text and rendered
// back verbatim, with SQL NULL and JSON null treated as "no value".
type JSON []byte

// GormDataType stores documents as text on every dialect, matching the
// string returned by Value.
func (JSON) GormDataType() string {
	return "text"
}

// Value implements the driver.Valuer interface.
func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}

	if !json.Valid(j) {
		return nil, errors.New("invalid JSON document")
	}

	return string(j), nil
}

// Scan implements the sql.Scanner interface.
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case string:
		*j = JSON(v)
	case []byte:
		*j = append(JSON(nil), v...)
	default:
		return fmt.Errorf("failed to scan JSON, %v", value)
	}

	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j.IsNull() {
		return []byte("null"), nil
	}

	return j, nil
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	if j == nil {
		return errors.New("model.JSON: UnmarshalJSON on nil pointer")
	}

	*j = append((*j)[0:0], b...)
	return nil
}

func (j JSON) IsNull() bool {
	t := bytes.TrimSpace(j)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
