package codec

import (
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/prime"
)

// ChecksumModulus is the fixed modulus for the checksum exponent.
const ChecksumModulus int64 = 256

// primeTable is the process-wide prime source. Opcode and operand
// primes are pre-registered against it once, at package init, so that
// later decode work is table lookup plus (for the unbounded Foreign
// check) trial division; never a cold sieve for the reserved primes.
var primeTable = prime.New()

// opcodePrime[op] is the specific payload prime identifying op.
var opcodePrime [opcodeCount]int64

// opcodePrimeIndex[op] is the prime-table index reserved for op's
// opcode prime (i.e. NthPrime(opcodePrimeIndex[op]) == opcodePrime[op]).
// Exposed so VM-level code (BuildChunk callers) can name primes by
// index without hard-coding reservation order.
var opcodePrimeIndex [opcodeCount]int

// operandPrimes[op] is the ordered list of payload primes carrying op's
// operands. Disjoint from every opcodePrime entry and from the checksum
// prime, by construction (they are consecutive, never-reused entries
// of the same growing prime table).
var operandPrimes [opcodeCount][]int64

// operandPrimeIndex[op] mirrors operandPrimes with prime-table indices.
var operandPrimeIndex [opcodeCount][]int

// opcodeOfPrime inverts opcodePrime for decode's opcode-identification
// step.
var opcodeOfPrime map[int64]Opcode

// ChecksumPrime guards every chunk's structural integrity.
var ChecksumPrime int64

func init() {
	next := 0
	reserve := func() (int64, int) {
		p := primeTable.NthPrime(next)
		idx := next
		next++
		return p, idx
	}

	opcodeOfPrime = make(map[int64]Opcode, opcodeCount)
	for op := Opcode(0); op < opcodeCount; op++ {
		p, idx := reserve()
		opcodePrime[op] = p
		opcodePrimeIndex[op] = idx
		opcodeOfPrime[p] = op
	}

	// Only Push carries a literal chunk-encoded operand; every other
	// opcode's operands travel on the stack.
	p, idx := reserve()
	operandPrimes[Push] = []int64{p}
	operandPrimeIndex[Push] = []int{idx}

	ChecksumPrime, _ = reserve()
}

// OpcodePrime exposes OPCODE_PRIME[op] for callers outside this
// package.
func OpcodePrime(op Opcode) int64 {
	return opcodePrime[op]
}

// OperandPrimes exposes OPERAND_PRIMES[op].
func OperandPrimes(op Opcode) []int64 {
	return operandPrimes[op]
}

// NthPrime exposes the shared prime table to callers that build chunks
// from a prime index directly (BuildChunk's wire format names primes
// by index).
func NthPrime(n int) int64 {
	return primeTable.NthPrime(n)
}

// OpcodePrimeIndex exposes the prime-table index reserved for op's
// opcode prime, for UOR code that builds chunks via BuildChunk's
// index-based wire format instead of Build.
func OpcodePrimeIndex(op Opcode) int {
	return opcodePrimeIndex[op]
}

// OperandPrimeIndex exposes the prime-table index reserved for op's
// j-th operand prime.
func OperandPrimeIndex(op Opcode, j int) int {
	return operandPrimeIndex[op][j]
}

func pow(base int64, exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), nil)
}
