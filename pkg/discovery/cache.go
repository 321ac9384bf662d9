package discovery

import (
	"net/netip"
	"sync"
	"time"
)

// cacheEntry pins one pod identity to a backend address until it expires.
type cacheEntry struct {
	addr      netip.AddrPort
	expiresAt time.Time
}

// Cache is a thread-safe identity-to-address cache with a fixed TTL.
//
// Entries expire lazily: Get checks the deadline on every read, so an entry
// is usable strictly before its expiry and never at or after it. A background
// sweeper additionally clears expired entries so the map does not grow with
// identities nobody asks about anymore.
//
// Put always overwrites. Two rounds racing to cache the same identity both
// win in some order and the later write sets the surviving entry; both
// addresses answered to the identity moments ago, so either is serviceable.
type Cache struct {
	entries map[string]cacheEntry
	ttl     time.Duration

	mu     sync.RWMutex
	stopCh chan struct{}

	sweepInterval time.Duration
}

// NewCache creates a cache whose entries live for ttl. A ttl of 0 disables
// expiry and the sweeper.
func NewCache(ttl time.Duration) *Cache {
	sweepInterval := time.Minute
	if ttl > 0 {
		sweepInterval = ttl / 2
		if sweepInterval < time.Second {
			sweepInterval = time.Second
		}
	}

	c := &Cache{
		entries:       make(map[string]cacheEntry),
		ttl:           ttl,
		stopCh:        make(chan struct{}),
		sweepInterval: sweepInterval,
	}

	if ttl > 0 {
		go c.sweep()
	}

	return c
}

// Get returns the cached address for a pod identity.
// Returns (addr, true) only while the entry is unexpired.
func (c *Cache) Get(podID string) (netip.AddrPort, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[podID]
	if !ok {
		return netip.AddrPort{}, false
	}
	if c.ttl > 0 && !time.Now().Before(entry.expiresAt) {
		return netip.AddrPort{}, false
	}
	return entry.addr, true
}

// Put stores an address for a pod identity with a fresh TTL, replacing any
// existing entry.
func (c *Cache) Put(podID string, addr netip.AddrPort) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.entries[podID] = cacheEntry{
		addr:      addr,
		expiresAt: expiresAt,
	}
}

// Delete removes an entry.
func (c *Cache) Delete(podID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, podID)
}

// Len returns the number of entries, expired ones included until the next
// sweep.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Close stops the background sweeper. Get and Put keep working afterward,
// but nothing reclaims expired entries anymore. Close at most once.
func (c *Cache) Close() {
	close(c.stopCh)
}

// sweep drops expired entries every sweepInterval until Close.
func (c *Cache) sweep() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for podID, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, podID)
		}
	}
}
