// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var _ ArchLookup = (*CachedLookup)(nil)

// CachedLookup remembers successful lookups of another [ArchLookup] for a
// fixed time. Failed lookups are not cached. It is safe for concurrent use.
//
// Expired entries are removed by a background sweep. Call [CachedLookup.Stop]
// to release it.
type CachedLookup struct {
	next        ArchLookup
	expireAfter time.Duration

	now func() time.Time

	mu   sync.Mutex
	data map[string]cacheEntry

	stopped atomic.Bool
	stopCh  chan struct{}
}

type cacheEntry struct {
	arch      string
	expiresAt time.Time
}

// NewCachedLookup wraps next with a cache. It panics if expireAfter is not
// positive.
func NewCachedLookup(next ArchLookup, expireAfter time.Duration) *CachedLookup {
	return newCachedLookup(next, expireAfter, time.Now)
}

func newCachedLookup(next ArchLookup, expireAfter time.Duration, now func() time.Time) *CachedLookup {
	if expireAfter <= 0 {
		panic("expireAfter duration must be positive")
	}

	c := &CachedLookup{
		next:        next,
		expireAfter: expireAfter,
		now:         now,
		data:        make(map[string]cacheEntry),
		stopCh:      make(chan struct{}),
	}

	// Sweep at a quarter of the TTL, but not more often than every 50ms.
	sweep := max(expireAfter/4, 50*time.Millisecond)
	go c.start(sweep)

	return c
}

// Arch returns the cached architecture of agentID, calling the wrapped lookup
// on a miss. The lock is not held during that call, so concurrent misses for
// the same agent may each call it.
func (c *CachedLookup) Arch(ctx context.Context, agentID string) (string, error) {
	if c.stopped.Load() {
		panic("cache is stopped")
	}

	c.mu.Lock()
	e, ok := c.data[agentID]
	c.mu.Unlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.arch, nil
	}

	arch, err := c.next.Arch(ctx, agentID)
	if err != nil {
		return "", err //nolint:wrapcheck // Returned as-is from the wrapped lookup.
	}

	c.mu.Lock()
	c.data[agentID] = cacheEntry{arch: arch, expiresAt: c.now().Add(c.expireAfter)}
	c.mu.Unlock()
	return arch, nil
}

// Forget drops the cached entry of agentID, e.g. after the agent re-registered
// from another host.
func (c *CachedLookup) Forget(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, agentID)
}

// Size returns the number of cached entries, including expired ones not yet
// swept.
func (c *CachedLookup) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stop ends the background sweep and drops every entry. The lookup must not
// be used afterwards.
func (c *CachedLookup) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
}

func (c *CachedLookup) start(sweep time.Duration) {
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep deletes every expired entry.
func (c *CachedLookup) sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.data {
		if !now.Before(e.expiresAt) {
			delete(c.data, k)
		}
	}
}
