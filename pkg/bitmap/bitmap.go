// Package bitmap implements the seat occupancy bit-vector. The polarity is
// inherited from the booking domain and must be kept consistent end to end:
// a set bit (1) means the seat is FREE, a cleared bit (0) means occupied.
package bitmap

// NewAllFree returns a vector for n seats with every seat free. Trailing bits
// of the last byte stay cleared so they never count as seats.
func NewAllFree(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	b := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		b[i/8] |= 1 << uint(i%8)
	}
	return b
}

// IsFree reports whether seat i is free. Out-of-range indexes are occupied.
func IsFree(b []byte, i int) bool {
	if i < 0 || i/8 >= len(b) {
		return false
	}
	return b[i/8]&(1<<uint(i%8)) != 0
}

func SetFree(b []byte, i int) {
	if i < 0 || i/8 >= len(b) {
		return
	}
	b[i/8] |= 1 << uint(i%8)
}

func SetOccupied(b []byte, i int) {
	if i < 0 || i/8 >= len(b) {
		return
	}
	b[i/8] &^= 1 << uint(i%8)
}

// CountFree counts free seats among the first n.
func CountFree(b []byte, n int) int {
	count := 0
	for i := 0; i < n; i++ {
		if IsFree(b, i) {
			count++
		}
	}
	return count
}

// FreeIndexes returns the indexes of free seats among the first n, ascending.
func FreeIndexes(b []byte, n int) []int {
	indexes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if IsFree(b, i) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func Clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
