package tlist

// deBruijn32 and deBruijnTable implement constant-time "index of lowest
// set bit" for a 32-bit word: multiply the isolated lowest bit by a
// de Bruijn sequence and use the top 5 bits of the product as an index
// into a precomputed table. Same trick the Go runtime uses for
// sys.TrailingZeros32.
const deBruijn32 = 0x077CB531

var deBruijnTable = [32]byte{
	0, 1, 28, 2, 29, 14, 24, 3, 30, 22, 20, 15, 25, 17, 4, 8,
	31, 27, 13, 23, 21, 19, 16, 7, 26, 12, 18, 6, 11, 5, 10, 9,
}

// PrioBitmap is a fixed-width bitmap with bit i set iff priority level i
// has a non-empty ready queue. firstSet is the hot path of every
// scheduling decision, so it must stay O(1).
type PrioBitmap struct {
	word uint32
}

// Set marks priority i ready.
func (b *PrioBitmap) Set(i int) {
	b.word |= 1 << uint(i)
}

// Clear marks priority i not ready.
func (b *PrioBitmap) Clear(i int) {
	b.word &^= 1 << uint(i)
}

// Get reports whether priority i is marked ready.
func (b *PrioBitmap) Get(i int) bool {
	return b.word&(1<<uint(i)) != 0
}

// Empty reports whether no priority is ready.
func (b *PrioBitmap) Empty() bool {
	return b.word == 0
}

// FirstSet returns the lowest set bit index (highest priority ready),
// or -1 if the bitmap is empty.
func (b *PrioBitmap) FirstSet() int {
	if b.word == 0 {
		return -1
	}
	lowest := b.word & -b.word
	return int(deBruijnTable[(lowest*deBruijn32)>>27])
}
