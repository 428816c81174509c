package entity

import "time"

// RefreshToken is the single persisted session record of a user. TokenHash is
// a digest of the current refresh token value, never the value itself.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	JTI       string
	CreatedAt time.Time
}

type SessionState int

const (
	SessionAbsent SessionState = iota
	SessionActive
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	default:
		return "absent"
	}
}

// Session is what the store reports for a user: either no record at all, or
// the active record.
type Session struct {
	State  SessionState
	Record *RefreshToken
}

func AbsentSession() Session {
	return Session{State: SessionAbsent}
}

func ActiveSession(record *RefreshToken) Session {
	return Session{State: SessionActive, Record: record}
}

func (s Session) Active() bool {
	return s.State == SessionActive && s.Record != nil
}
