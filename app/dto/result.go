package dto

import "github.com/vibast-solutions/ms-go-jobtracker/app/entity"

// TokenPair is what a successful register, login or refresh hands out. It is
// never persisted.
// ExpiresIn and RefreshExpiresIn are token lifetimes in seconds.
type TokenPair struct {
	UserID           uint64
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64
	RefreshExpiresIn int64
}

type ApplicationPage struct {
	Items []*entity.Application
	Total int64
}
