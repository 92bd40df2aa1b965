package core

// upload_limiter.go bounds how many uploaded spreadsheets are parsed at once.
//
// Parsing a workbook loads the whole sheet into memory, so a burst of large
// uploads can exhaust the process. Each upload takes a slot from a buffered
// channel; when all slots are taken the caller waits up to maxWait and then
// gets ErrTooManyUploads. WaitForDrain lets shutdown wait for parses in flight.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when no upload slot frees up in time.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

const (
	// DefaultMaxConcurrentUploads is used when the configured limit is not positive.
	DefaultMaxConcurrentUploads = 2

	// DefaultMaxWaitTime is how long Acquire waits for a slot by default.
	DefaultMaxWaitTime = 30 * time.Second
)

// UploadLimiter is a counting semaphore for upload parsing.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewUploadLimiter allows at most maxConcurrent uploads at a time. Callers
// that cannot get a slot within maxWait receive ErrTooManyUploads.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, blocking up to maxWait. The caller must Release
// after a nil return.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyUploads
	}
}

// Release returns a slot taken by Acquire.
func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of uploads holding a slot.
func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no upload holds a slot or ctx is done.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// UploadLimiterStatus is a snapshot of the limiter for logs and health output.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
