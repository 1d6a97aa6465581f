package codec

import (
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/vmerr"
)

// Decoded is the decoded view of a chunk: an opcode plus its operands,
// in declaration order.
type Decoded struct {
	Opcode   Opcode
	Operands []int64
}

var one = big.NewInt(1)

// Build encodes op and its operands into a chunk: payload =
// OPCODE_PRIME[op] · ∏ Qⱼ^(operand_j+1), checksum exponent = (1 +
// Σ(operand_j+1)) mod CHECKSUM_MOD.
func Build(op Opcode, operands []int64) (*big.Int, error) {
	if !op.Valid() {
		return nil, vmerr.New(vmerr.EncodingError, "unknown opcode %d", int(op))
	}
	qs := operandPrimes[op]
	if len(operands) != len(qs) {
		return nil, vmerr.New(vmerr.EncodingError,
			"%s requires %d operands, got %d", op, len(qs), len(operands))
	}
	for i, v := range operands {
		if v < 0 {
			return nil, vmerr.New(vmerr.EncodingError,
				"%s operand %d is negative: %d", op, i, v)
		}
	}

	payload := big.NewInt(opcodePrime[op])
	expSum := int64(1)
	for j, q := range qs {
		e := operands[j] + 1
		payload.Mul(payload, pow(q, e))
		expSum += e
	}

	cksumExp := expSum % ChecksumModulus
	payload.Mul(payload, pow(ChecksumPrime, cksumExp))
	return payload, nil
}

// Decode factorizes chunk back into its opcode and operands, validating
// the checksum exponent along the way.
func Decode(chunk *big.Int) (Decoded, error) {
	if chunk.Sign() <= 0 {
		return Decoded{}, vmerr.New(vmerr.DecodeNoOpcode, "chunk must be a positive integer, got %s", chunk.String())
	}

	factors := factorize(chunk)

	// Step 2: extract (and remove) the checksum exponent. Its absence
	// is not a distinct failure here: it surfaces naturally as a
	// checksum mismatch once step 6 recomputes the expected exponent.
	storedCksumExp := factors[ChecksumPrime]
	delete(factors, ChecksumPrime)

	// Step 3: locate the unique opcode prime, with exponent exactly 1.
	var found []Opcode
	for p, exp := range factors {
		if op, ok := opcodeOfPrime[p]; ok {
			if exp == 1 {
				found = append(found, op)
			} else {
				// Present but with the wrong exponent: it cannot validly
				// identify an opcode, and cannot be an operand or
				// foreign prime either since opcode primes are disjoint
				// from every other prime set.
				return Decoded{}, vmerr.New(vmerr.DecodeNoOpcode,
					"opcode prime %d present with exponent %d, want 1", p, exp)
			}
		}
	}
	if len(found) == 0 {
		return Decoded{}, vmerr.New(vmerr.DecodeNoOpcode, "no opcode prime present in chunk %s", chunk.String())
	}
	if len(found) > 1 {
		return Decoded{}, vmerr.New(vmerr.DecodeAmbiguous, "multiple opcode primes present: %v", found)
	}
	op := found[0]
	delete(factors, opcodePrime[op])

	// Step 4: read each operand prime's exponent, in declared order.
	qs := operandPrimes[op]
	operands := make([]int64, len(qs))
	for j, q := range qs {
		exp, ok := factors[q]
		if !ok || exp < 1 {
			return Decoded{}, vmerr.New(vmerr.DecodeBadOperand,
				"%s operand %d (prime %d) missing or has exponent < 1", op, j, q)
		}
		operands[j] = exp - 1
		delete(factors, q)
	}

	// Step 5: anything left over is foreign to this opcode.
	if len(factors) > 0 {
		return Decoded{}, vmerr.New(vmerr.DecodeForeign, "chunk %s has foreign factors %v", chunk.String(), factors)
	}

	// Step 6: recompute and compare the checksum exponent.
	expSum := int64(1)
	for _, v := range operands {
		expSum += v + 1
	}
	expected := expSum % ChecksumModulus
	if expected != storedCksumExp {
		return Decoded{}, vmerr.New(vmerr.DecodeChecksum,
			"checksum mismatch: stored %d, expected %d", storedCksumExp, expected)
	}

	return Decoded{Opcode: op, Operands: operands}, nil
}

// factorize fully factors n by trial division against the shared prime
// table, growing it as needed. The result includes every prime factor,
// not just the ones PrimeOS has reserved; callers are responsible for
// recognizing reserved primes and rejecting the rest as foreign.
func factorize(n *big.Int) map[int64]int64 {
	factors := make(map[int64]int64)
	remaining := new(big.Int).Set(n)

	i := 0
	for remaining.Cmp(one) > 0 {
		p := primeTable.NthPrime(i)
		pBig := big.NewInt(p)

		if exp := trialDivide(remaining, pBig); exp > 0 {
			factors[p] += int64(exp)
		}

		if remaining.Cmp(one) == 0 {
			break
		}

		// Once p² exceeds what's left, whatever remains is itself prime.
		if new(big.Int).Mul(pBig, pBig).Cmp(remaining) > 0 {
			if remaining.IsInt64() {
				factors[remaining.Int64()]++
			} else {
				// A prime factor too large to have a registered index;
				// record it under the key -1, which can never match a
				// reserved prime and so is always reported as foreign.
				factors[-1]++
			}
			break
		}
		i++
	}
	return factors
}

// trialDivide divides p out of remaining as many times as it goes,
// mutating remaining in place, and returns the exponent removed.
func trialDivide(remaining, p *big.Int) int {
	exp := 0
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(remaining, p, r)
		if r.Sign() != 0 {
			return exp
		}
		remaining.Set(q)
		exp++
	}
}
