package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}

	return value.String(), nil
}

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fantasy-prediction/ids"))

// Deterministic derives a stable UUIDv5 from the given parts. The same parts
// always produce the same id.
func Deterministic(kind string, parts ...string) string {
	name := kind + ":" + strings.Join(parts, "/")
	return uuid.NewSHA1(namespace, []byte(name)).String()
}
