// Package container holds the two data structures the inverted index is
// built on: a fixed-size packed bit vector used for query result sets, and a
// generic open-addressing hash map used for term and URL lookup tables.
package container

import (
	"math/bits"
	"strings"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

const wordBits = 64

// BitSet is a fixed-size bit vector packed into 64-bit words. Bit i set means
// document i is a member of the set. The logical size is fixed at
// construction; operations on two sets require equal sizes.
//
// BitSet is not safe for concurrent mutation.
type BitSet struct {
	words []uint64
	size  uint32
}

// NewBitSet creates a BitSet of the given logical size with all bits clear.
func NewBitSet(size uint32) *BitSet {
	return &BitSet{
		words: make([]uint64, wordsFor(size)),
		size:  size,
	}
}

func wordsFor(size uint32) int {
	return (int(size) + wordBits - 1) / wordBits
}

// Size returns the logical number of bits.
func (b *BitSet) Size() uint32 { return b.size }

// Set sets bit i.
func (b *BitSet) Set(i uint32) error {
	if i >= b.size {
		return pkgerrors.ErrOutOfRange
	}
	b.words[i/wordBits] |= 1 << (i % wordBits)
	return nil
}

// Clear clears bit i.
func (b *BitSet) Clear(i uint32) error {
	if i >= b.size {
		return pkgerrors.ErrOutOfRange
	}
	b.words[i/wordBits] &^= 1 << (i % wordBits)
	return nil
}

// Flip inverts bit i.
func (b *BitSet) Flip(i uint32) error {
	if i >= b.size {
		return pkgerrors.ErrOutOfRange
	}
	b.words[i/wordBits] ^= 1 << (i % wordBits)
	return nil
}

// Test reports whether bit i is set. Out-of-range bits read as false.
func (b *BitSet) Test(i uint32) bool {
	if i >= b.size {
		return false
	}
	return b.words[i/wordBits]>>(i%wordBits)&1 == 1
}

// Count returns the number of set bits.
func (b *BitSet) Count() uint32 {
	var n int
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return uint32(n)
}

// Any reports whether at least one bit is set.
func (b *BitSet) Any() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// None reports whether no bit is set.
func (b *BitSet) None() bool { return !b.Any() }

// All reports whether every bit within the logical size is set.
func (b *BitSet) All() bool {
	if b.size == 0 {
		return true
	}
	full := int(b.size) / wordBits
	for i := 0; i < full; i++ {
		if b.words[i] != ^uint64(0) {
			return false
		}
	}
	if extra := b.size % wordBits; extra > 0 {
		mask := uint64(1)<<extra - 1
		return b.words[len(b.words)-1]&mask == mask
	}
	return true
}

// FirstSet returns the index of the lowest set bit, or Size() if none is set.
func (b *BitSet) FirstSet() uint32 {
	for i, w := range b.words {
		if w != 0 {
			return uint32(i*wordBits + bits.TrailingZeros64(w))
		}
	}
	return b.size
}

// NextSet returns the index of the lowest set bit at or after pos, or Size()
// if there is none.
func (b *BitSet) NextSet(pos uint32) uint32 {
	if pos >= b.size {
		return b.size
	}
	wi := int(pos) / wordBits
	w := b.words[wi] & (^uint64(0) << (pos % wordBits))
	if w != 0 {
		return uint32(wi*wordBits + bits.TrailingZeros64(w))
	}
	for i := wi + 1; i < len(b.words); i++ {
		if b.words[i] != 0 {
			return uint32(i*wordBits + bits.TrailingZeros64(b.words[i]))
		}
	}
	return b.size
}

// SetAll sets every bit within the logical size.
func (b *BitSet) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.maskTail()
}

// ClearAll clears every bit.
func (b *BitSet) ClearAll() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// FlipAll inverts every bit within the logical size. Bits beyond the logical
// size stay clear: the backing storage is word-granular, so the final partial
// word is re-masked.
func (b *BitSet) FlipAll() {
	for i := range b.words {
		b.words[i] = ^b.words[i]
	}
	b.maskTail()
}

func (b *BitSet) maskTail() {
	if extra := b.size % wordBits; extra > 0 && len(b.words) > 0 {
		b.words[len(b.words)-1] &= uint64(1)<<extra - 1
	}
}

// And intersects b with other in place.
func (b *BitSet) And(other *BitSet) error {
	if b.size != other.size {
		return pkgerrors.ErrSizeMismatch
	}
	for i := range b.words {
		b.words[i] &= other.words[i]
	}
	return nil
}

// Or unions b with other in place.
func (b *BitSet) Or(other *BitSet) error {
	if b.size != other.size {
		return pkgerrors.ErrSizeMismatch
	}
	for i := range b.words {
		b.words[i] |= other.words[i]
	}
	return nil
}

// Xor computes the symmetric difference of b and other in place.
func (b *BitSet) Xor(other *BitSet) error {
	if b.size != other.size {
		return pkgerrors.ErrSizeMismatch
	}
	for i := range b.words {
		b.words[i] ^= other.words[i]
	}
	return nil
}

// Not inverts b in place, re-masking the final partial word.
func (b *BitSet) Not() {
	b.FlipAll()
}

// Clone returns a deep copy of b.
func (b *BitSet) Clone() *BitSet {
	c := &BitSet{
		words: make([]uint64, len(b.words)),
		size:  b.size,
	}
	copy(c.words, b.words)
	return c
}

// Equal reports whether two sets have the same size and bit pattern.
func (b *BitSet) Equal(other *BitSet) bool {
	if b.size != other.size {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders the set as a '0'/'1' string, lowest bit first.
func (b *BitSet) String() string {
	var sb strings.Builder
	sb.Grow(int(b.size))
	for i := uint32(0); i < b.size; i++ {
		if b.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
