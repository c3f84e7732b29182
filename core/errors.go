package core

import "errors"

var (
	// ErrRecordNotFound is the only hard load failure: no design exists
	// under the requested key.
	ErrRecordNotFound = errors.New("design record not found")

	// ErrBlobNotFound marks a missing bulk payload. Loads recover from it
	// through the inline fallback.
	ErrBlobNotFound = errors.New("payload blob not found")

	// ErrQuotaExceeded is returned by cache-tier writes that would exceed
	// the cache budget. It downgrades to a skipped tier, never a failure.
	ErrQuotaExceeded = errors.New("cache quota exceeded")
)
