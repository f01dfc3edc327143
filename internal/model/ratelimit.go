package model

import (
	"sort"
	"time"
)

// ResourceLimit is the quota for a single API resource (core, search, graphql).
type ResourceLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimitSnapshot is a point-in-time view of the API quota.
// It is never cached.
type RateLimitSnapshot struct {
	Limit         int                      `json:"limit"`
	Remaining     int                      `json:"remaining"`
	ResetAt       time.Time                `json:"reset_at"`
	Authenticated bool                     `json:"authenticated"`
	Resources     map[string]ResourceLimit `json:"resources,omitempty"`
}

// ResourceNames returns the resource keys in display order: core, search,
// graphql first, then anything else alphabetically.
func (s RateLimitSnapshot) ResourceNames() []string {
	order := map[string]int{"core": 0, "search": 1, "graphql": 2}
	names := make([]string, 0, len(s.Resources))
	for name := range s.Resources {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		}
		return names[i] < names[j]
	})
	return names
}

// Low reports whether the remaining quota is under the given absolute
// count or under the given fraction of the limit.
func (s RateLimitSnapshot) Low(minRemaining int, fraction float64) bool {
	if s.Remaining < minRemaining {
		return true
	}
	if s.Limit > 0 && float64(s.Remaining) < fraction*float64(s.Limit) {
		return true
	}
	return false
}
