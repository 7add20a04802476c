// Package sequence assembles catalogued clips into time-bounded playback
// sequences.
package sequence

import (
	"math/rand/v2"

	"github.com/medleyhq/medley/internal/store"
)

// Selector chooses an ordered subset of candidates whose total duration does
// not exceed targetSeconds. Implementations decide the selection policy; the
// assembler and the store are policy-agnostic.
type Selector interface {
	Select(candidates []*store.ClipCandidate, targetSeconds int) []*store.ClipCandidate
}

// RandomGreedy draws candidates in a fresh random order and accepts them
// greedily, stopping at the first clip that would overflow the target. It
// makes no attempt at optimal packing, so an early large draw can leave
// significant slack.
type RandomGreedy struct{}

func (RandomGreedy) Select(candidates []*store.ClipCandidate, targetSeconds int) []*store.ClipCandidate {
	shuffled := make([]*store.ClipCandidate, len(candidates))
	copy(shuffled, candidates)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return pack(shuffled, targetSeconds)
}

// pack greedily accepts clips in order until one would exceed the target,
// then stops entirely. It never skips past an oversized clip.
func pack(ordered []*store.ClipCandidate, targetSeconds int) []*store.ClipCandidate {
	var chosen []*store.ClipCandidate
	total := 0
	for _, c := range ordered {
		if total+c.Duration > targetSeconds {
			break
		}
		chosen = append(chosen, c)
		total += c.Duration
	}
	return chosen
}
