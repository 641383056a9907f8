package paper

import (
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// Mode names a paper layout; it is part of the shuffle seed.
type Mode string

const (
	ModeFullTerm    Mode = "full_term"
	ModePartialTerm Mode = "partial_term"
	ModeFlexible    Mode = "flexible"
)

// Rand is a pseudo-random stream fully determined by its seed string.
type Rand struct {
	r *rand.Rand
}

// NewRand hashes the seed string into the state of a PCG generator.
func NewRand(seed string) *Rand {
	hi := xxhash.Sum64String(seed)
	lo := xxhash.Sum64String(seed + "#")
	return &Rand{r: rand.New(rand.NewPCG(hi, lo))}
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// SeedString composes the per-set seed from stable request parameters
// and the per-request salt.
func SeedString(courseID int, mode Mode, set, salt string) string {
	return fmt.Sprintf("%d|%s|%s|%s", courseID, mode, set, salt)
}

// Shuffle returns a permuted copy of pool using Fisher-Yates from the last
// index down. The input slice is not modified.
func Shuffle(pool []model.Question, rng *Rand) []model.Question {
	out := make([]model.Question, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
