// Package token issues admission tokens: opaque capability credentials drawn
// from crypto/rand.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultBytes = 16

type Generator interface {
	Generate() (string, error)
}

// RandomGenerator returns upper-case hex strings of 2*Bytes characters.
type RandomGenerator struct {
	Bytes int
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{Bytes: defaultBytes}
}

func (g *RandomGenerator) Generate() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = defaultBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

var _ Generator = (*RandomGenerator)(nil)
