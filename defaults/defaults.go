// Package defaults holds ready-made default value generators and identity generators.
//
// The generators are registered with the schema package under "random", "uuid" and
// "now", so YAML schemas can refer to them with `generate: <name>`.
package defaults

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/burugo/modelkit/schema"
)

// RandomLength is the number of hex characters produced by Random.
const RandomLength = 32

func init() {
	schema.RegisterGenerator("random", Random)
	schema.RegisterGenerator("uuid", UUID)
	schema.RegisterGenerator("now", Now)
}

// Random returns a random hex string of RandomLength characters.
var Random schema.Generator = RandomN(RandomLength)

// UUID returns a new random UUID string.
var UUID schema.Generator = func() any {
	return uuid.NewString()
}

// Now returns the current UTC time.
var Now schema.Generator = func() any {
	return time.Now().UTC()
}

// RandomN returns a generator producing random hex strings of n characters.
func RandomN(n int) schema.Generator {
	return func() any {
		s, err := randomHex(n)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("defaults: read random bytes: %v", err))
		}
		return s
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := hex.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s, nil
}

// Sequence returns a generator producing prefix1, prefix2, ... in order.
func Sequence(prefix string) schema.Generator {
	var n atomic.Int64
	return func() any {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// UUIDGenerator assigns random UUIDs as record identities.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequentialGenerator assigns deterministic identities, for tests.
type SequentialGenerator struct {
	Prefix string
	n      atomic.Int64
}

// NewSequential creates a SequentialGenerator producing prefix1, prefix2, ...
func NewSequential(prefix string) *SequentialGenerator {
	return &SequentialGenerator{Prefix: prefix}
}

// NewID returns the next identity in the sequence.
func (g *SequentialGenerator) NewID() string {
	return fmt.Sprintf("%s%d", g.Prefix, g.n.Add(1))
}
