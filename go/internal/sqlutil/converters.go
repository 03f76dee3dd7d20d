package sqlutil

import "database/sql"

// ToNullString maps an empty string to NULL.
func ToNullString(val string) sql.NullString {
	return sql.NullString{String: val, Valid: val != ""}
}

// FromNullString maps NULL to an empty string.
func FromNullString(val sql.NullString) string {
	if !val.Valid {
		return ""
	}
	return val.String
}
