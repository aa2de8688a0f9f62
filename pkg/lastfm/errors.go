package lastfm

import (
	"errors"
	"fmt"
)

// Error is an error reported by the Last.fm API inside a failed <lfm>
// envelope.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so sentinel values such as
// ErrArtistNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// Temporary reports whether the request may succeed if retried.
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	}
	return false
}

// Last.fm error codes the artist methods can return.
const (
	ErrCodeInvalidMethod     = 3
	ErrCodeInvalidParameters = 6
	ErrCodeOperationFailed   = 8
	ErrCodeInvalidAPIKey     = 10
	ErrCodeServiceOffline    = 11
	ErrCodeInvalidSignature  = 13
	ErrCodeTempUnavailable   = 16
	ErrCodeSuspendedAPIKey   = 26
	ErrCodeRateLimitExceeded = 29
)

var (
	// ErrArtistNotFound matches the "invalid parameters" error Last.fm
	// returns for unknown artist names.
	ErrArtistNotFound = &Error{Code: ErrCodeInvalidParameters}

	ErrInvalidConfig = errors.New("lastfm: invalid configuration")
)
