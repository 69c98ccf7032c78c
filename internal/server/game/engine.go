// Package game holds the pure guess rules. It never touches storage; callers
// pass in the current turn count and an RNG.
package game

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/dmitrijs2005/guessgame/internal/common"
)

// Rand is the randomness the engine consumes. IntN returns a value in [0,n),
// Float64 a value in [0,1).
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// LockedRand is a PCG source safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewLockedRand(seed uint64) *LockedRand {
	return &LockedRand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *LockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Outcome is the result of one play.
type Outcome struct {
	ServerNumber int
	Won          bool
}

type Engine struct {
	maxNumber      int
	winProbability float64
}

func NewEngine(maxNumber int, winProbability float64) (*Engine, error) {
	if maxNumber < 1 {
		return nil, fmt.Errorf("max number must be at least 1, got %d", maxNumber)
	}
	if winProbability < 0 || winProbability > 1 {
		return nil, fmt.Errorf("win probability must be within [0,1], got %v", winProbability)
	}
	return &Engine{maxNumber: maxNumber, winProbability: winProbability}, nil
}

func (e *Engine) MaxNumber() int {
	return e.maxNumber
}

// Validate checks the guess preconditions. The range is checked before turns.
func (e *Engine) Validate(number, turns int) error {
	if number < 1 || number > e.maxNumber {
		return fmt.Errorf("%w: %d is outside [1,%d]", common.ErrInvalidGuess, number, e.maxNumber)
	}
	if turns <= 0 {
		return common.ErrNoTurnsRemaining
	}
	return nil
}

// Play validates the guess and draws the outcome. The server number is drawn
// first, then the bonus roll; a guess wins on either.
func (e *Engine) Play(rng Rand, number, turns int) (Outcome, error) {
	if err := e.Validate(number, turns); err != nil {
		return Outcome{}, err
	}

	serverNumber := rng.IntN(e.maxNumber) + 1
	roll := rng.Float64()

	return Outcome{
		ServerNumber: serverNumber,
		Won:          roll < e.winProbability || number == serverNumber,
	}, nil
}
