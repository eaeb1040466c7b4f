package nearest

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/bits"
)

// universalPrime is the Mersenne prime 2^61-1. Residues fit in 61 bits, so
// the sum of two residues never overflows a uint64.
const universalPrime uint64 = 1<<61 - 1

// quantize returns floor((dot + offset) / w) as an int64, saturating at the
// int64 range.
func quantize(dot, offset, w float64) int64 {
	v := math.Floor((dot + offset) / w)
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// residue maps h into [0, universalPrime). Negative values land in the
// non-negative residue system instead of producing a negative remainder.
func residue(h int64) uint64 {
	r := h % int64(universalPrime)
	if r < 0 {
		r += int64(universalPrime)
	}
	return uint64(r)
}

// combineUniversal returns (sum_j residue(h_j) * coeffs[j]) mod P. Each
// product is formed in 128 bits and reduced before it is accumulated.
func combineUniversal(hashes []int64, coeffs []uint64) uint64 {
	var g uint64
	for j, h := range hashes {
		hi, lo := bits.Mul64(residue(h), coeffs[j])
		g += bits.Rem64(hi, lo, universalPrime)
		if g >= universalPrime {
			g -= universalPrime
		}
	}
	return g
}

// combineFNV folds the 8 little-endian bytes of every hash, in order,
// through FNV-1a 64.
func combineFNV(hashes []int64) uint64 {
	f := fnv.New64a()
	var buf [8]byte
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(buf[:], uint64(h))
		f.Write(buf[:])
	}
	return f.Sum64()
}
