package urlshort

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

const (
	// Charset is the alphabet short codes are drawn from.
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the fixed length of every short code.
	CodeLength = 6
	// DefaultMaxDraws bounds the candidates tried by a single Generate call.
	DefaultMaxDraws = 1000
)

// ExistsFunc reports whether a short code is already in use.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces random short codes that were unused at the time of the check.
// It never reserves a code, so callers must still handle a conflict on insert.
type Generator struct {
	maxDraws int
	intN     func(n int) int
}

// NewGenerator returns a Generator that tries at most maxDraws candidates per call.
func NewGenerator(maxDraws int) *Generator {
	if maxDraws <= 0 {
		maxDraws = DefaultMaxDraws
	}
	return &Generator{
		maxDraws: maxDraws,
		intN:     rand.IntN,
	}
}

// Generate draws candidates until exists reports one as free.
// When every draw collides it returns a *types.ConflictError carrying the last candidate.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	var candidate string
	for i := 0; i < g.maxDraws; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate = g.draw()
		used, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check short code %s: %w", candidate, err)
		}
		if !used {
			return candidate, nil
		}
	}

	return "", &types.ConflictError{ShortCode: candidate}
}

func (g *Generator) draw() string {
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = Charset[g.intN(len(Charset))]
	}
	return string(code)
}
