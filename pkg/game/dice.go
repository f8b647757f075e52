package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/cbodonnell/panchali/pkg/game/constants"
)

// DiceRoller produces one die face per call, in [DiceMin, DiceMax].
type DiceRoller interface {
	Roll() int
}

// RandomDiceRoller is a DiceRoller safe for concurrent use.
type RandomDiceRoller struct {
	lock sync.Mutex
	rng  *rand.Rand
}

// NewRandomDiceRoller returns a roller seeded from crypto/rand.
func NewRandomDiceRoller() *RandomDiceRoller {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(err)
	}
	return NewSeededDiceRoller(int64(binary.LittleEndian.Uint64(seed[:])))
}

// NewSeededDiceRoller returns a roller producing a reproducible sequence.
func NewSeededDiceRoller(seed int64) *RandomDiceRoller {
	return &RandomDiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (d *RandomDiceRoller) Roll() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return constants.DiceMin + d.rng.Intn(constants.DiceMax-constants.DiceMin+1)
}
