package params

const (
	// DefaultModulusBits is the size of N used when the caller does not choose one.
	DefaultModulusBits = 2048

	// MinModulusBits is the smallest N accepted at key-consumption boundaries.
	// Smaller moduli leave too little room for the challenge space 2ᵇ, b = |N|/2 - 1.
	MinModulusBits = 128

	// Candidates is the number of plaintexts a membership proof ranges over.
	Candidates = 3

	// MaxSampleIterations bounds every rejection sampling loop.
	// For a well-formed N the probability of exhausting it is negligible.
	MaxSampleIterations = 255

	// MaxPrimeIterations bounds the number of sieve windows tried when
	// searching for a safe prime. Safe primes are sparse, hence the larger bound.
	MaxPrimeIterations = 100_000
)

// ChallengeBits returns b = |N|/2 - 1.
//
// Challenges must stay below both prime factors of N, each of which has
// |N|/2 bits.
func ChallengeBits(modulusBits int) int {
	return modulusBits/2 - 1
}

// PrimeBits returns the size of each prime factor for a modulus of the given size.
func PrimeBits(modulusBits int) int {
	return modulusBits / 2
}
