package iconstruye

import (
	"context"
	"sync"
)

// ConcurrentRequestLimiter bounds the number of in-flight requests against
// the iConstruye API. The per-invoice detail lookups fan out one request
// per document and would otherwise flood the subscription quota.
type ConcurrentRequestLimiter struct {
	semaphore     chan struct{}
	maxConcurrent int

	mu            sync.RWMutex
	activeCount   int
	totalAcquired int64
}

func NewConcurrentRequestLimiter(maxConcurrent int) *ConcurrentRequestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &ConcurrentRequestLimiter{
		semaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
	}
}

// Acquire blocks until a slot is available or the context is cancelled.
func (l *ConcurrentRequestLimiter) Acquire(ctx context.Context) error {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.activeCount++
		l.totalAcquired++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ConcurrentRequestLimiter) Release() {
	<-l.semaphore
	l.mu.Lock()
	l.activeCount--
	l.mu.Unlock()
}

func (l *ConcurrentRequestLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeCount
}

func (l *ConcurrentRequestLimiter) MaxConcurrent() int {
	return l.maxConcurrent
}
