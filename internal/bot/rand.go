package bot

import (
	"math/rand"
	"sync"
)

// botRng is the package-level random source used by all bot strategies and
// by server-side fleet placement. When nil, the functions below delegate to
// the global math/rand default. Use SeedBotRng to set a deterministic source
// for reproducible games.
var (
	botRng   *rand.Rand
	botRngMu sync.Mutex
)

// SeedBotRng sets a deterministic random source for reproducible bot behavior.
func SeedBotRng(seed int64) {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the default (non-deterministic) global random source.
func ResetBotRng() {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	botRng = nil
}

// botIntn is safe for concurrent use; a seeded *rand.Rand is not, so it is
// guarded by botRngMu.
func botIntn(n int) int {
	botRngMu.Lock()
	defer botRngMu.Unlock()
	if botRng != nil {
		return botRng.Intn(n)
	}
	return rand.Intn(n)
}

// Source adapts the bot RNG to the engine's Rand interface.
type Source struct{}

// Intn returns a value in [0, n).
func (Source) Intn(n int) int { return botIntn(n) }
