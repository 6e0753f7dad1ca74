// Package dice provides the randomness abstraction used by the encounter
// engine for randomized target selection.
package dice

// Source is the randomness provider for target picks.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Pick returns a uniformly random index in [0, n), or -1 when n <= 0.
//
// Postcondition: Returns -1 iff n <= 0; otherwise 0 <= result < n.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}
