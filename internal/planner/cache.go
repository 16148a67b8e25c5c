package planner

import (
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/horae/internal/scheduler"
)

// DefaultCacheTTL bounds how long cached pipeline intermediates stay valid
// without an explicit invalidation.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	priorities map[string]float64
	selection  *scheduler.WeeklySelection
	expiresAt  time.Time
}

// PlanCache holds per-(user, week) pipeline intermediates: the oracle
// priorities and the weekly selection. Entries expire on TTL and are swept
// lazily; domain mutations invalidate a whole user.
type PlanCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewPlanCache creates a cache with the given TTL; zero means
// DefaultCacheTTL.
func NewPlanCache(ttl time.Duration) *PlanCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PlanCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(userID, weekStart string) string {
	return userID + "|" + weekStart
}

func (c *PlanCache) get(userID, weekStart string) *cacheEntry {
	key := cacheKey(userID, weekStart)
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return e
}

// Priorities returns the cached score map for the week, or nil.
func (c *PlanCache) Priorities(userID, weekStart string) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.get(userID, weekStart); e != nil {
		return e.priorities
	}
	return nil
}

// Selection returns the cached weekly selection, or nil.
func (c *PlanCache) Selection(userID, weekStart string) *scheduler.WeeklySelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.get(userID, weekStart); e != nil {
		return e.selection
	}
	return nil
}

// PutPriorities stores the score map for the week.
func (c *PlanCache) PutPriorities(userID, weekStart string, scores map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsert(userID, weekStart).priorities = scores
}

// PutSelection stores the weekly selection.
func (c *PlanCache) PutSelection(userID, weekStart string, sel *scheduler.WeeklySelection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsert(userID, weekStart).selection = sel
}

func (c *PlanCache) upsert(userID, weekStart string) *cacheEntry {
	key := cacheKey(userID, weekStart)
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	e.expiresAt = c.now().Add(c.ttl)
	return e
}

// Invalidate drops every cached week of one user. Called on any mutation of
// the user's tasks, goals or projects.
func (c *PlanCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := userID + "|"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}
