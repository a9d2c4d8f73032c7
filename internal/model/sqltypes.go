package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string stored as a JSON array in a TEXT column.
// A nil list is encoded as [] so readers never see null.
type StringList []string

// MarshalJSON encodes nil as an empty array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	data, err := textBytes(src)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshaling string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// LinkList is a []HelpfulLink stored as a JSON array in a TEXT column.
type LinkList []HelpfulLink

// MarshalJSON encodes nil as an empty array.
func (l LinkList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]HelpfulLink(l))
}

// Value implements driver.Valuer.
func (l LinkList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]HelpfulLink(l))
	if err != nil {
		return nil, fmt.Errorf("marshaling link list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *LinkList) Scan(src interface{}) error {
	data, err := textBytes(src)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*l = LinkList{}
		return nil
	}
	var out []HelpfulLink
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshaling link list: %w", err)
	}
	if out == nil {
		out = []HelpfulLink{}
	}
	*l = out
	return nil
}

func textBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported column type %T for JSON list", src)
	}
}
