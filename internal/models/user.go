package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NullString is a string that handles NULL values from the database and
// serializes NULL as JSON null
type NullString struct {
	String string
	Valid  bool
}

// NewNullString returns a valid NullString
func NewNullString(s string) NullString {
	return NullString{String: s, Valid: true}
}

// Scan implements the sql.Scanner interface
func (n *NullString) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*n = NullString{}
	case string:
		*n = NullString{String: v, Valid: true}
	case []byte:
		*n = NullString{String: string(v), Valid: true}
	default:
		return fmt.Errorf("cannot scan %T into NullString", value)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (n NullString) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.String, nil
}

// MarshalJSON implements json.Marshaler
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = NullString{String: s, Valid: true}
	return nil
}

// User is a row of the users fixture table
type User struct {
	ID    int64      `db:"id" json:"id"`
	Name  string     `db:"name" json:"name"`
	Email NullString `db:"email" json:"email"`
}

// SeedUsers returns the fixture rows. Elias and Paula have no email.
func SeedUsers() []User {
	return []User{
		{ID: 1, Name: "Juan", Email: NewNullString("juan@denode.com")},
		{ID: 2, Name: "Elias"},
		{ID: 3, Name: "Marcos", Email: NewNullString("marcos@denode.com")},
		{ID: 4, Name: "Paula"},
	}
}
