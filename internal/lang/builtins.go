// Copyright 2024 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lang

// Builtins are grounded on cue/builtin.go's table-of-functions shape
// (a name-keyed registry of pure Go functions operating on the
// language's universal value), narrowed to the fixed set spec.md §6
// requires the core to resolve statically.
//
// uniform/normal/beta model the "pseudo-random source indexable by
// integer offset" of §6 as ordinary pure functions: uniform(seed, i)
// (or a vector of i's) returns the deterministic pseudo-random sample
// at that offset, computed by hashing (seed, i) rather than by
// materializing an infinite sequence. Calling with a vector of
// offsets broadcasts, which is how a caller gets a contiguous "slice"
// of the source (uniform(seed, (i;i+1;...;i+9)), one 10-element offset
// vector, instead of source[i:i+10]). Several offset arguments are
// hashed together into one sample per position, not sampled
// separately.

import (
	"math"

	"flitter.dev/flitter/internal/value"
)

// Builtin is a first-class function value: the thing a Name can
// resolve to (spec.md §4.3 Name rule) and a Call can invoke.
type Builtin struct {
	Name string
	// MinArgs/MaxArgs bound the arity Call will accept; MaxArgs < 0
	// means unbounded. Calls outside the range are an evaluation
	// error (§7), not a panic.
	MinArgs, MaxArgs int
	// Pure reports whether the simplifier may invoke Fn directly when
	// every argument is literal (§4.3 Call rule). debug is the one
	// builtin that is not pure: it has the side effect of writing to
	// ctx.logs, so it must wait for evaluation.
	Pure bool
	Fn   func(args []value.Vector) value.Vector
}

var builtinTable map[string]*Builtin

func init() {
	builtinTable = map[string]*Builtin{}
	register := func(b *Builtin) { builtinTable[b.Name] = b }

	register(unaryMath("sqrt", math.Sqrt))
	register(unaryMath("sin", func(x float64) float64 { return math.Sin(x * math.Pi / 180) }))
	register(unaryMath("cos", func(x float64) float64 { return math.Cos(x * math.Pi / 180) }))
	register(unaryMath("tan", func(x float64) float64 { return math.Tan(x * math.Pi / 180) }))

	register(&Builtin{Name: "hypot", MinArgs: 1, MaxArgs: -1, Pure: true, Fn: builtinHypot})
	register(&Builtin{Name: "angle", MinArgs: 1, MaxArgs: 2, Pure: true, Fn: builtinAngle})
	register(&Builtin{Name: "length", MinArgs: 1, MaxArgs: 1, Pure: true, Fn: builtinLength})
	register(&Builtin{Name: "ord", MinArgs: 1, MaxArgs: 1, Pure: true, Fn: builtinOrd})
	register(&Builtin{Name: "chr", MinArgs: 1, MaxArgs: 1, Pure: true, Fn: builtinChr})
	register(&Builtin{Name: "split", MinArgs: 2, MaxArgs: 2, Pure: true, Fn: builtinSplit})

	register(&Builtin{Name: "uniform", MinArgs: 2, MaxArgs: -1, Pure: true, Fn: builtinUniform})
	register(&Builtin{Name: "normal", MinArgs: 2, MaxArgs: -1, Pure: true, Fn: builtinNormal})
	register(&Builtin{Name: "beta", MinArgs: 2, MaxArgs: -1, Pure: true, Fn: builtinBeta})

	register(&Builtin{Name: "noise", MinArgs: 2, MaxArgs: 4, Pure: true, Fn: builtinNoise})
	register(&Builtin{Name: "octnoise", MinArgs: 4, MaxArgs: 6, Pure: true, Fn: builtinOctnoise})

	register(&Builtin{Name: "debug", MinArgs: 0, MaxArgs: -1, Pure: false, Fn: func(args []value.Vector) value.Vector {
		// Evaluated only by eval.go, which has ctx access; see evalCallDebug.
		return value.ConcatAll(args...)
	}})
}

// lookupBuiltin returns the builtin named name, or nil.
func lookupBuiltin(name string) *Builtin {
	switch name {
	case "null":
		return nil
	}
	return builtinTable[name]
}

// constantBuiltinValue resolves the three constant bindings of §6 that
// are vectors rather than functions.
func constantBuiltinValue(name string) (value.Vector, bool) {
	switch name {
	case "null":
		return value.Null(), true
	case "true":
		return value.True, true
	case "false":
		return value.False, true
	}
	return value.Vector{}, false
}

func unaryMath(name string, f func(float64) float64) *Builtin {
	return &Builtin{
		Name: name, MinArgs: 1, MaxArgs: 1, Pure: true,
		Fn: func(args []value.Vector) value.Vector {
			a := args[0]
			if !a.IsNumeric() {
				return value.Null()
			}
			ns := a.NumbersSlice()
			out := make([]float64, len(ns))
			for i, n := range ns {
				out[i] = f(n)
			}
			return value.Numbers(out...)
		},
	}
}

func builtinHypot(args []value.Vector) value.Vector {
	for _, a := range args {
		if !a.IsNumeric() {
			return value.Null()
		}
	}
	n := args[0].Len()
	for _, a := range args[1:] {
		if a.Len() > n {
			n = a.Len()
		}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, a := range args {
			x := a.NumbersSlice()[i%a.Len()]
			sum += x * x
		}
		out[i] = math.Sqrt(sum)
	}
	return value.Numbers(out...)
}

// builtinAngle returns the angle in degrees of a 2-vector (x, y), or
// of the pair (x, y) given as two single-element arguments.
func builtinAngle(args []value.Vector) value.Vector {
	var x, y float64
	if len(args) == 1 {
		a := args[0]
		if !a.IsNumeric() || a.Len() != 2 {
			return value.Null()
		}
		x, y = a.NumbersSlice()[0], a.NumbersSlice()[1]
	} else {
		if !args[0].IsNumeric() || !args[1].IsNumeric() {
			return value.Null()
		}
		x, _ = args[0].Float64()
		y, _ = args[1].Float64()
	}
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return value.Number(deg)
}

func builtinLength(args []value.Vector) value.Vector {
	return value.Number(float64(args[0].Len()))
}

func builtinOrd(args []value.Vector) value.Vector {
	a := args[0]
	if !a.IsSymbolic() || a.Len() != 1 {
		return value.Null()
	}
	s := a.SymbolsSlice()[0].String()
	if len(s) != 1 {
		return value.Null()
	}
	return value.Number(float64(s[0]))
}

func builtinChr(args []value.Vector) value.Vector {
	a := args[0]
	if !a.IsNumeric() {
		return value.Null()
	}
	out := make([]value.Symbol, len(a.NumbersSlice()))
	for i, n := range a.NumbersSlice() {
		out[i] = value.Intern(string(rune(int(n))))
	}
	return value.Symbols(out...)
}

func builtinSplit(args []value.Vector) value.Vector {
	a, sep := args[0], args[1]
	if !a.IsSymbolic() || a.Len() != 1 || !sep.IsSymbolic() || sep.Len() != 1 {
		return value.Null()
	}
	parts := splitString(a.SymbolsSlice()[0].String(), sep.SymbolsSlice()[0].String())
	out := make([]value.Symbol, len(parts))
	for i, p := range parts {
		out[i] = value.Intern(p)
	}
	return value.Symbols(out...)
}

func splitString(s, sep string) []string {
	if sep == "" {
		return []string{s}
	}
	var out []string
	for {
		i := indexOf(s, sep)
		if i < 0 {
			out = append(out, s)
			return out
		}
		out = append(out, s[:i])
		s = s[i+len(sep):]
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// hashSample derives a deterministic uint64 from a seed vector and a
// tuple of float64 coordinates/offsets, the shared primitive behind
// uniform/normal/beta/noise.
func hashSample(seed value.Vector, extra ...uint64) uint64 {
	h := seed.Hash()
	for _, e := range extra {
		h ^= e
		h *= 0x100000001b3
		h ^= h >> 33
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
	}
	return h
}

func uint64Bits(f float64) uint64 { return math.Float64bits(f) }

// uniformSample maps a hash to [0, 1).
func uniformSample(h uint64) float64 {
	return float64(h>>11) / float64(1<<53)
}

func broadcastRandom(seed value.Vector, indices []value.Vector, sample func(h uint64) float64) value.Vector {
	n := 0
	for _, idx := range indices {
		if idx.Len() > n {
			n = idx.Len()
		}
	}
	if n == 0 {
		return value.Null()
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		extra := make([]uint64, len(indices))
		for j, idx := range indices {
			if !idx.IsNumeric() {
				return value.Null()
			}
			extra[j] = uint64Bits(idx.NumbersSlice()[i%idx.Len()])
		}
		out[i] = sample(hashSample(seed, extra...))
	}
	return value.Numbers(out...)
}

func builtinUniform(args []value.Vector) value.Vector {
	seed, indices := args[0], args[1:]
	return broadcastRandom(seed, indices, uniformSample)
}

func builtinNormal(args []value.Vector) value.Vector {
	seed, indices := args[0], args[1:]
	return broadcastRandom(seed, indices, func(h uint64) float64 {
		u1 := uniformSample(h)
		u2 := uniformSample(h*0x9e3779b97f4a7c15 + 1)
		if u1 <= 0 {
			u1 = 1e-12
		}
		return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	})
}

// builtinBeta approximates a Beta(2, 2) source (the distribution the
// language's beta() defaults to) by averaging two uniform samples.
// That mean has a triangular density on [0, 1) peaking at 0.5, not an
// exact Beta(2, 2); it is a symmetric, reproducible [0, 1) source of
// the same general shape.
func builtinBeta(args []value.Vector) value.Vector {
	seed, indices := args[0], args[1:]
	return broadcastRandom(seed, indices, func(h uint64) float64 {
		u1 := uniformSample(h)
		u2 := uniformSample(h ^ 0xd6e8feb86659fd93)
		return (u1 + u2) / 2
	})
}

func smoothstep(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// gradient1 returns a deterministic pseudo-random slope in [-1, 1] at
// integer lattice point i, seeded by seed.
func gradient1(seed value.Vector, i int64) float64 {
	return uniformSample(hashSample(seed, uint64(i)))*2 - 1
}

// gradient2 returns a deterministic unit gradient vector at lattice
// point (ix, iy).
func gradient2(seed value.Vector, ix, iy int64) (float64, float64) {
	angle := uniformSample(hashSample(seed, uint64(ix), uint64(iy))) * 2 * math.Pi
	return math.Cos(angle), math.Sin(angle)
}

func gradient3(seed value.Vector, ix, iy, iz int64) (float64, float64, float64) {
	h := hashSample(seed, uint64(ix), uint64(iy), uint64(iz))
	theta := uniformSample(h) * math.Pi
	phi := uniformSample(h*0x9e3779b97f4a7c15+1) * 2 * math.Pi
	return math.Sin(theta) * math.Cos(phi), math.Sin(theta) * math.Sin(phi), math.Cos(theta)
}

// valueNoise1 is 1D gradient (Perlin-style) noise in [-1, 1]. The
// value at an exact integer coordinate is always zero, since the
// offset from the dominating corner vanishes there.
func valueNoise1(seed value.Vector, x float64) float64 {
	x0 := math.Floor(x)
	i0 := int64(x0)
	t := smoothstep(x - x0)
	n0 := gradient1(seed, i0) * (x - x0)
	n1 := gradient1(seed, i0+1) * (x - (x0 + 1))
	return lerp(n0, n1, t)
}

func valueNoise2(seed value.Vector, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	tx, ty := smoothstep(x-x0), smoothstep(y-y0)
	ix0, iy0 := int64(x0), int64(y0)
	dot := func(ix, iy int64, dx, dy float64) float64 {
		gx, gy := gradient2(seed, ix, iy)
		return gx*dx + gy*dy
	}
	n00 := dot(ix0, iy0, x-x0, y-y0)
	n10 := dot(ix0+1, iy0, x-(x0+1), y-y0)
	n01 := dot(ix0, iy0+1, x-x0, y-(y0+1))
	n11 := dot(ix0+1, iy0+1, x-(x0+1), y-(y0+1))
	return lerp(lerp(n00, n10, tx), lerp(n01, n11, tx), ty)
}

func valueNoise3(seed value.Vector, x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	tx, ty, tz := smoothstep(x-x0), smoothstep(y-y0), smoothstep(z-z0)
	ix0, iy0, iz0 := int64(x0), int64(y0), int64(z0)
	dot := func(ix, iy, iz int64, dx, dy, dz float64) float64 {
		gx, gy, gz := gradient3(seed, ix, iy, iz)
		return gx*dx + gy*dy + gz*dz
	}
	n000 := dot(ix0, iy0, iz0, x-x0, y-y0, z-z0)
	n100 := dot(ix0+1, iy0, iz0, x-(x0+1), y-y0, z-z0)
	n010 := dot(ix0, iy0+1, iz0, x-x0, y-(y0+1), z-z0)
	n110 := dot(ix0+1, iy0+1, iz0, x-(x0+1), y-(y0+1), z-z0)
	n001 := dot(ix0, iy0, iz0+1, x-x0, y-y0, z-(z0+1))
	n101 := dot(ix0+1, iy0, iz0+1, x-(x0+1), y-y0, z-(z0+1))
	n011 := dot(ix0, iy0+1, iz0+1, x-x0, y-(y0+1), z-(z0+1))
	n111 := dot(ix0+1, iy0+1, iz0+1, x-(x0+1), y-(y0+1), z-(z0+1))
	z0lerp := lerp(lerp(n000, n100, tx), lerp(n010, n110, tx), ty)
	z1lerp := lerp(lerp(n001, n101, tx), lerp(n011, n111, tx), ty)
	return lerp(z0lerp, z1lerp, tz)
}

// builtinNoise implements noise(seed, x[, y[, z]]) (§6): deterministic
// coherent noise seeded by a symbol, evaluated at 1-3 coordinates,
// broadcasting over vector coordinates and null-propagating per
// coordinate (a null coordinate argument yields null; coordinates of
// differing length broadcast against the longest, per §4.1).
func builtinNoise(args []value.Vector) value.Vector {
	seed := args[0]
	coords := args[1:]
	for _, c := range coords {
		if c.IsNull() {
			return value.Null()
		}
		if !c.IsNumeric() {
			return value.Null()
		}
	}
	n := 0
	for _, c := range coords {
		if c.Len() > n {
			n = c.Len()
		}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		at := func(c value.Vector) float64 { return c.NumbersSlice()[i%c.Len()] }
		switch len(coords) {
		case 1:
			out[i] = valueNoise1(seed, at(coords[0]))
		case 2:
			out[i] = valueNoise2(seed, at(coords[0]), at(coords[1]))
		case 3:
			out[i] = valueNoise3(seed, at(coords[0]), at(coords[1]), at(coords[2]))
		default:
			return value.Null()
		}
	}
	return value.Numbers(out...)
}

// builtinOctnoise implements octnoise(seed, octaves, roughness, x[, y[, z]])
// (§6): sums noise across octaves doublings of frequency, each scaled
// by roughness^i, normalized so the result stays within [-1, 1].
func builtinOctnoise(args []value.Vector) value.Vector {
	seed, octavesV, roughnessV := args[0], args[1], args[2]
	coords := args[3:]
	if octavesV.IsNull() || roughnessV.IsNull() {
		return value.Null()
	}
	for _, c := range coords {
		if c.IsNull() || !c.IsNumeric() {
			return value.Null()
		}
	}
	octaves, ok := octavesV.Float64()
	if !ok || octaves < 1 {
		return value.Null()
	}
	roughness, ok := roughnessV.Float64()
	if !ok {
		return value.Null()
	}
	n := 0
	for _, c := range coords {
		if c.Len() > n {
			n = c.Len()
		}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		at := func(c value.Vector) float64 { return c.NumbersSlice()[i%c.Len()] }
		var sum, norm, amp, freq float64 = 0, 0, 1, 1
		for o := 0; o < int(octaves); o++ {
			var sample float64
			switch len(coords) {
			case 1:
				sample = valueNoise1(seed, at(coords[0])*freq)
			case 2:
				sample = valueNoise2(seed, at(coords[0])*freq, at(coords[1])*freq)
			case 3:
				sample = valueNoise3(seed, at(coords[0])*freq, at(coords[1])*freq, at(coords[2])*freq)
			default:
				return value.Null()
			}
			sum += sample * amp
			norm += amp
			amp *= roughness
			freq *= 2
		}
		if norm > 0 {
			out[i] = sum / norm
		}
	}
	return value.Numbers(out...)
}
