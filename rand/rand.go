// rand/rand.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	gomath "math"

	"github.com/MichaelTJones/pcg"
)

///////////////////////////////////////////////////////////////////////////
// Random numbers.

// Rand is a small deterministic generator; scenarios seed one per run so
// that simulated sensor noise is reproducible.
type Rand struct {
	r *pcg.PCG32
}

func New() Rand {
	return Rand{r: pcg.NewPCG32()}
}

func Make(seed int64) Rand {
	r := New()
	r.Seed(seed)
	return r
}

func (r *Rand) Seed(s int64) {
	r.r.Seed(uint64(s), 0xda3e39cb94b95bdb)
}

func (r *Rand) Float32() float32 {
	return float32(r.r.Random()) / (1<<32 - 1)
}

// NormFloat32 returns a normally distributed value with mean 0 and standard
// deviation 1, via the Box-Muller transform.
func (r *Rand) NormFloat32() float32 {
	u1 := float64(r.Float32())
	for u1 == 0 {
		u1 = float64(r.Float32())
	}
	u2 := float64(r.Float32())
	return float32(gomath.Sqrt(-2*gomath.Log(u1)) * gomath.Cos(2*gomath.Pi*u2))
}

// Normal returns a normally distributed value with the given mean and
// standard deviation.
func (r *Rand) Normal(mean, stddev float32) float32 {
	return mean + stddev*r.NormFloat32()
}
