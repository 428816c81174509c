package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           uint64
	Username     string
	Email        string
	DisplayName  sql.NullString
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
