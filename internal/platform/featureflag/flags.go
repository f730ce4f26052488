// Package featureflag implements deterministic per-tenant rollout
// decisions. A tenant's bucket is a pure function of its identifier, so the
// same tenant always sees the same decision for a given flag state.
package featureflag

import "hash/fnv"

// Flag is the state of a single feature.
type Flag struct {
	// Enabled is the kill switch. When false the feature is off for every
	// tenant regardless of Rollout.
	Enabled bool
	// Rollout is the enabled fraction of tenants, in [0, 1].
	Rollout float64
}

// Source supplies flag state. The static map implementation below stands in
// for an external flag service.
type Source interface {
	Flag(name string) (Flag, bool)
}

// StaticSource is an immutable in-memory Source, safe for unsynchronized
// concurrent reads after construction.
type StaticSource map[string]Flag

func (s StaticSource) Flag(name string) (Flag, bool) {
	f, ok := s[name]
	return f, ok
}

// Options adjusts a single gate decision.
type Options struct {
	// Default is returned for unknown features.
	Default bool
}

// Gate answers rollout questions against a Source.
type Gate struct {
	source Source
}

func NewGate(source Source) *Gate {
	return &Gate{source: source}
}

// IsEnabled reports whether a feature is on for a tenant. Unknown features
// return opts.Default. A disabled flag is off for everyone. Otherwise the
// tenant's stable bucket (0-99) is compared against the rollout percentage;
// no randomness and no per-call state, so decisions are sticky.
func (g *Gate) IsEnabled(feature, tenantID string, opts Options) bool {
	flag, ok := g.source.Flag(feature)
	if !ok {
		return opts.Default
	}
	if !flag.Enabled {
		return false
	}
	return float64(Bucket(tenantID)) < flag.Rollout*100
}

// Bucket maps a tenant identifier to a stable percentile bucket in [0, 100).
func Bucket(tenantID string) int {
	h := fnv.New32a()
	h.Write([]byte(tenantID))
	return int(h.Sum32() % 100)
}
