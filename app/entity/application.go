package entity

import (
	"database/sql"
	"time"
)

const (
	ApplicationStatusWishlist     = "wishlist"
	ApplicationStatusApplied      = "applied"
	ApplicationStatusInterviewing = "interviewing"
	ApplicationStatusOffer        = "offer"
	ApplicationStatusRejected     = "rejected"
	ApplicationStatusWithdrawn    = "withdrawn"
)

var ApplicationStatuses = []string{
	ApplicationStatusWishlist,
	ApplicationStatusApplied,
	ApplicationStatusInterviewing,
	ApplicationStatusOffer,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

func IsValidApplicationStatus(status string) bool {
	for _, s := range ApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Application struct {
	ID        uint64         `db:"id"`
	UserID    uint64         `db:"user_id"`
	Company   string         `db:"company"`
	Position  string         `db:"position"`
	Status    string         `db:"status"`
	Location  sql.NullString `db:"location"`
	URL       sql.NullString `db:"url"`
	Notes     sql.NullString `db:"notes"`
	AppliedAt sql.NullTime   `db:"applied_at"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
