package core

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// FallbackIDPrefix marks identifiers minted without the secure random source.
// UUID strings never start with it.
const FallbackIDPrefix = "emp_"

// IDGenerator produces identifiers unique for the lifetime of the process.
type IDGenerator interface {
	NewID() (string, error)
}

// RandomIDGenerator mints random v4 UUIDs and falls back to xid identifiers
// when the random source fails. xid combines a timestamp with an atomically
// incremented counter, so fallback ids do not collide within one second.
type RandomIDGenerator struct {
	random io.Reader

	warnOnce  sync.Once
	fallbacks atomic.Int64
}

// NewRandomIDGenerator returns a generator reading from r.
// A nil r uses crypto/rand.
func NewRandomIDGenerator(r io.Reader) *RandomIDGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &RandomIDGenerator{random: r}
}

// NewID implements IDGenerator.
func (g *RandomIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandomFromReader(g.random)
	if err == nil {
		return id.String(), nil
	}

	g.warnOnce.Do(func() {
		slog.Warn("random source unavailable, using counter-based ids", "error", err)
	})
	g.fallbacks.Add(1)
	return FallbackIDPrefix + xid.New().String(), nil
}

// Fallbacks returns how many ids were minted by the fallback scheme.
func (g *RandomIDGenerator) Fallbacks() int64 {
	return g.fallbacks.Load()
}

// SequenceIDGenerator yields prefix1, prefix2, ... Used for seeds and tests.
type SequenceIDGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewSequenceIDGenerator returns a generator producing prefix-numbered ids.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// NewID implements IDGenerator.
func (g *SequenceIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s%d", g.prefix, g.next.Add(1)), nil
}
