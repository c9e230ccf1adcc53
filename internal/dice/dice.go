// Package dice produces dice outcomes from a seeded rigid-body drop
// simulation. The server draws one unpredictable seed per roll and runs the
// deterministic simulation to completion; only the seed is shared with
// clients, which can replay the same drop for animation. The face values
// returned here are the authoritative ones.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrSettleTimeout means the simulation exceeded its step budget.
	// This indicates misconfigured physical constants, not a bad request.
	ErrSettleTimeout = errors.New("dice simulation failed to settle")

	// ErrUnstableRest means a die came to rest without any face flat
	// within tolerance. Never defaulted to a face value: a silent
	// fallback would corrupt scoring.
	ErrUnstableRest = errors.New("die at rest with no face up")
)

// Outcome is the result of one roll request.
type Outcome struct {
	Faces []int  // face values 1..6, one per die
	Seed  uint32 // seed that drove the simulation
}

// Generator rolls dice by physical simulation.
type Generator struct{}

// NewGenerator returns a dice outcome generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Roll drops count dice and returns their resting faces plus the seed used.
func (g *Generator) Roll(count int) (Outcome, error) {
	if count < 1 || count > maxDice {
		return Outcome{}, fmt.Errorf("roll %d dice: count out of range", count)
	}
	seed, err := newSeed()
	if err != nil {
		return Outcome{}, fmt.Errorf("draw seed: %w", err)
	}
	faces, err := simulate(seed, count)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Faces: faces, Seed: seed}, nil
}

const maxDice = 5

// newSeed draws an unpredictable 32-bit seed from crypto/rand.
func newSeed() (uint32, error) {
	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// simulate runs the deterministic drop for the given seed. Same seed and
// count always produce the same face sequence.
func simulate(seed uint32, count int) ([]int, error) {
	rng := rand.New(rand.NewSource(int64(seed)))

	bodies := make([]*body, count)
	for i := range bodies {
		b := newBody(vec3{spawnX, float64(i) * dieSize * 1.5, 0})
		rx := 2 * math.Pi * rng.Float64()
		rz := 2 * math.Pi * rng.Float64()
		b.orient = quatFromAxisAngle(vec3{1, 0, 0}, rx).mul(quatFromAxisAngle(vec3{0, 0, 1}, rz))
		force := launchBase + launchSpread*rng.Float64()
		b.applyImpulse(vec3{-force, force, 0}, launchOffset)
		bodies[i] = b
	}

	for step := 0; step < maxSteps; step++ {
		asleep := true
		for _, b := range bodies {
			b.step(stepDT)
			if !b.asleep {
				asleep = false
			}
		}
		if !asleep {
			continue
		}
		faces := make([]int, count)
		for i, b := range bodies {
			face, err := b.upFace()
			if err != nil {
				return nil, err
			}
			faces[i] = face
		}
		return faces, nil
	}
	return nil, ErrSettleTimeout
}
