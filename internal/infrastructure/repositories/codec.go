package repositories

import (
	"database/sql"
	"encoding/json"
	"time"
)

// rowScanner об'єднує *sql.Row та *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// encodeJSON пакує значення у JSON-рядок. Рядок, а не []byte, бо lib/pq
// надсилає []byte як bytea.
func encodeJSON(v interface{}) (sql.NullString, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeJSON(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
