package models

import (
	"time"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Signed token ready to be sent to the client
type IssuedToken struct {
	Kind      TokenKind
	Value     string
	ExpiresAt time.Time
}

// Issued on login, the refresh token is exchanged for new access tokens until it expires
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
