package particles

import "gonum.org/v1/gonum/blas/blas32"

// shiftAges copies buckets [0, maxAge-2] of the current buffer into buckets
// [1, maxAge-1] of the next buffer. The oldest bucket is discarded. The
// current buffer still holds the previous step's full trail, so nothing is
// read after being overwritten.
func shiftAges(s *Store) {
	stride := s.numParticles * 3
	n := stride * (s.maxAge - 1)
	if n == 0 {
		return
	}
	blas32.Copy(
		blas32.Vector{N: n, Inc: 1, Data: s.current[:n]},
		blas32.Vector{N: n, Inc: 1, Data: s.next[stride : stride+n]},
	)
}
