// Package revocation keeps the ids of resume tokens that must no longer be
// accepted: tokens of deleted interviews and tokens replaced by a rotation.
// Entries only need to outlive the token they revoke, so every write carries
// a TTL.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"visaflow/pkg/platform/sentinel"
	pstrings "visaflow/pkg/platform/strings"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func nonEmpty(jtis []string) []string {
	return pstrings.Dedupe(jtis)
}

// MemoryList is an in-process revocation list for single-instance deployments
// and tests.
type MemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   func() time.Time
}

func NewMemoryList(clock func() time.Time) *MemoryList {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryList{revoked: make(map[string]time.Time), clock: clock}
}

func (l *MemoryList) Revoke(_ context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	expiresAt := l.clock().Add(ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, jti := range nonEmpty(jtis) {
		l.revoked[jti] = expiresAt
	}
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	expiresAt, ok := l.revoked[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.clock().After(expiresAt) {
		l.mu.Lock()
		delete(l.revoked, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
