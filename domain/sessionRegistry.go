package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
)

var ErrSessionNotFound = errors.New("session not found")
var ErrSessionLoadFailed = errors.New("load draft quote failed")

// SessionLoadError reports why OpenExisting could not load the draft quote.
// It matches ErrSessionLoadFailed with errors.Is.
type SessionLoadError struct {
	Code    future.ErrorCode
	Message string
}

func (err *SessionLoadError) Error() string {
	return ErrSessionLoadFailed.Error() + ": " + err.Message
}

func (err *SessionLoadError) Unwrap() error {
	return ErrSessionLoadFailed
}

type Session struct {
	SessionId string
	Store     IDraftQuoteStore
	OpenedAt  time.Time
}

// ISessionRegistry keeps the open draft quote stores of a process, one per editing session.
type ISessionRegistry interface {
	// Open starts a session on an empty draft for the request quote.
	Open(requestQuoteId string) Session
	// OpenExisting starts a session on a stored draft quote.
	OpenExisting(ctx context.Context, draftQuoteId string) (Session, error)
	Get(sessionId string) (Session, error)
	// Close tears the session store down, it reports whether the session existed.
	Close(sessionId string) bool
	CloseAll() int
	Count() int
}
