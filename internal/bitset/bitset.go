// Package bitset provides a dense set of positive integer ids backed by a
// packed bit vector. It is the serialized ledger format for per-user
// content consumption: bit i of the vector is set iff id i+1 is a member.
//
// Serialized layout: 64-bit words, little-endian, trailing all-zero words
// trimmed. The byte length is always a multiple of 8.
package bitset

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"math/rand"
)

const wordBits = 64

// Set is a dense set of ids >= 1. The zero value is an empty set ready to
// use. Set is not safe for concurrent mutation.
type Set struct {
	words []uint64
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// FromIDs builds a set containing the given ids.
func FromIDs(ids ...uint64) *Set {
	s := New()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func bitPos(id uint64) (word int, mask uint64) {
	// id 1 maps to word 0, bit 0.
	i := id - 1
	return int(i / wordBits), 1 << (i % wordBits)
}

func (s *Set) grow(word int) {
	if word < len(s.words) {
		return
	}
	grown := make([]uint64, word+1)
	copy(grown, s.words)
	s.words = grown
}

// Add inserts id and reports whether it was absent. Ids must be >= 1;
// Add of 0 is a no-op.
func (s *Set) Add(id uint64) bool {
	if id == 0 {
		return false
	}
	word, mask := bitPos(id)
	s.grow(word)
	if s.words[word]&mask != 0 {
		return false
	}
	s.words[word] |= mask
	return true
}

// Contains reports membership of id.
func (s *Set) Contains(id uint64) bool {
	if id == 0 {
		return false
	}
	word, mask := bitPos(id)
	return word < len(s.words) && s.words[word]&mask != 0
}

// Len returns the number of members.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Difference returns a new set holding the members of s not in other.
func (s *Set) Difference(other *Set) *Set {
	out := &Set{words: make([]uint64, len(s.words))}
	for i, w := range s.words {
		if i < len(other.words) {
			w &^= other.words[i]
		}
		out.words[i] = w
	}
	return out
}

// Union returns a new set holding the members of s and other.
func (s *Set) Union(other *Set) *Set {
	longest := len(s.words)
	if len(other.words) > longest {
		longest = len(other.words)
	}
	out := &Set{words: make([]uint64, longest)}
	for i := range out.words {
		if i < len(s.words) {
			out.words[i] = s.words[i]
		}
		if i < len(other.words) {
			out.words[i] |= other.words[i]
		}
	}
	return out
}

// NextAbsent returns the smallest id in [1, limit] that is not a member,
// or limit+1 when every id up to limit is present.
func (s *Set) NextAbsent(limit uint64) uint64 {
	if limit == 0 {
		return 1
	}
	for i := 0; uint64(i)*wordBits < limit; i++ {
		var w uint64
		if i < len(s.words) {
			w = s.words[i]
		}
		if w == ^uint64(0) {
			continue
		}
		id := uint64(i)*wordBits + uint64(bits.TrailingZeros64(^w)) + 1
		if id > limit {
			break
		}
		return id
	}
	return limit + 1
}

// Pick returns a uniformly random member using r, or false when empty.
func (s *Set) Pick(r *rand.Rand) (uint64, bool) {
	n := s.Len()
	if n == 0 {
		return 0, false
	}
	target := r.Intn(n)
	for i, w := range s.words {
		count := bits.OnesCount64(w)
		if target >= count {
			target -= count
			continue
		}
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			if target == 0 {
				return uint64(i)*wordBits + uint64(bit) + 1, true
			}
			target--
			w &= w - 1
		}
	}
	return 0, false // unreachable
}

// Members returns all ids in increasing order.
func (s *Set) Members() []uint64 {
	out := make([]uint64, 0, s.Len())
	for i, w := range s.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			out = append(out, uint64(i)*wordBits+uint64(bit)+1)
			w &= w - 1
		}
	}
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := &Set{words: make([]uint64, len(s.words))}
	copy(out.words, s.words)
	return out
}

// Equal reports whether both sets hold the same members.
func (s *Set) Equal(other *Set) bool {
	longest := len(s.words)
	if len(other.words) > longest {
		longest = len(other.words)
	}
	for i := 0; i < longest; i++ {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// MarshalBinary serializes the set as little-endian 64-bit words with
// trailing zero words trimmed. The empty set serializes to zero bytes.
func (s *Set) MarshalBinary() ([]byte, error) {
	last := len(s.words)
	for last > 0 && s.words[last-1] == 0 {
		last--
	}
	buf := make([]byte, last*8)
	for i := 0; i < last; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], s.words[i])
	}
	return buf, nil
}

// UnmarshalBinary replaces the set contents with the serialized form
// produced by MarshalBinary.
func (s *Set) UnmarshalBinary(data []byte) error {
	if len(data)%8 != 0 {
		return fmt.Errorf("bitset: serialized length %d is not a multiple of 8", len(data))
	}
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	s.words = words
	return nil
}
