// Package id generates identifiers: ULIDs for persisted entities and UUIDs
// for request correlation.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator defines the interface for ID generators.
type Generator interface {
	Generate() string
}

// ULIDGenerator 生成时间有序的 ULID，同一毫秒内单调递增。
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewULIDGenerator creates a ULID generator backed by crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Generate implements Generator.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// UUIDGenerator generates random UUID v4 strings.
type UUIDGenerator struct{}

// Generate implements Generator.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

var defaultULID = NewULIDGenerator()

// NewULID generates a new ULID string.
func NewULID() string {
	return defaultULID.Generate()
}

// NewUUID generates a new UUID v4 string.
func NewUUID() string {
	return uuid.NewString()
}

// IsULID reports whether s parses as a ULID.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
