package vmcore

import (
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
	"github.com/primeos/primeos-vm/internal/primeos/vmerr"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// dispatch executes one decoded instruction. Each exec<Op> method is
// responsible for its own IP advancement, matching the convention of
// handlers that each advance the program counter themselves; Jump,
// JumpIfZero, OpInput, and Halt are the exceptions, since they set IP
// directly, suspend, or stop the machine.
func (m *Machine) dispatch(dec codec.Decoded) error {
	switch dec.Opcode {
	case codec.Nop:
		return m.execNop()
	case codec.Push:
		return m.execPush(dec.Operands[0])
	case codec.Add:
		return m.execBinaryArith(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	case codec.Sub:
		return m.execBinaryArith(func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case codec.Mul:
		return m.execBinaryArith(func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case codec.Mod:
		return m.execMod()
	case codec.Dup:
		return m.execDup()
	case codec.Drop:
		return m.execDrop()
	case codec.Swap:
		return m.execSwap()
	case codec.CompareEq:
		return m.execCompareEq()
	case codec.Print:
		return m.execPrint()
	case codec.Jump:
		return m.execJump()
	case codec.JumpIfZero:
		return m.execJumpIfZero()
	case codec.OpRandom:
		return m.execRandom()
	case codec.OpInput:
		return m.execInput()
	case codec.PeekChunk:
		return m.execPeekChunk()
	case codec.BuildChunk:
		return m.execBuildChunk()
	case codec.PokeChunk:
		return m.execPokeChunk()
	case codec.Factorize:
		return m.execFactorize()
	case codec.Halt:
		return m.execHalt()
	default:
		return vmerr.New(vmerr.Unknown, "no handler for opcode %s", dec.Opcode)
	}
}

func (m *Machine) execNop() error {
	m.advance()
	return nil
}

func (m *Machine) execPush(v int64) error {
	if err := m.push(big.NewInt(v)); err != nil {
		return err
	}
	m.advance()
	return nil
}

// execBinaryArith implements Add/Sub/Mul: a,b → a⊕b, with b on top of
// stack. The result is range-checked against the signed 64-bit machine
// word; overflow is fatal, and only the chunk-reflective opcodes deal
// in values wider than that.
func (m *Machine) execBinaryArith(op func(a, b *big.Int) *big.Int) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	result := op(a, b)
	if !result.IsInt64() {
		return vmerr.New(vmerr.ArithmeticOverflow, "result %s exceeds signed 64-bit range", result.String())
	}
	if err := m.push(result); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execMod() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if b.Sign() == 0 {
		return vmerr.New(vmerr.DivisionByZero, "Mod by zero")
	}
	rem := new(big.Int)
	new(big.Int).QuoRem(a, b, rem) // truncated division, matching signed % semantics
	if err := m.push(rem); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execDup() error {
	top, err := m.peek()
	if err != nil {
		return err
	}
	if err := m.push(top); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execDrop() error {
	if _, err := m.pop(); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execSwap() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if err := m.push(b); err != nil {
		return err
	}
	if err := m.push(a); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execCompareEq() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	result := bigZero
	if a.Cmp(b) == 0 {
		result = bigOne
	}
	if err := m.push(result); err != nil {
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) execPrint() error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.Output = append(m.Output, new(big.Int).Set(v))
	m.advance()
	return nil
}

func (m *Machine) targetAddress(addr *big.Int) (int, error) {
	if !addr.IsInt64() {
		return 0, vmerr.New(vmerr.AddressOutOfRange, "address %s out of range", addr.String())
	}
	a := int(addr.Int64())
	if a < 0 || a >= len(m.Program) {
		return 0, vmerr.New(vmerr.AddressOutOfRange, "address %d out of range [0,%d)", a, len(m.Program))
	}
	return a, nil
}

func (m *Machine) execJump() error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.targetAddress(addr)
	if err != nil {
		return err
	}
	m.IP = a
	return nil
}

func (m *Machine) execJumpIfZero() error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	cond, err := m.pop()
	if err != nil {
		return err
	}
	if cond.Sign() == 0 {
		a, err := m.targetAddress(addr)
		if err != nil {
			return err
		}
		m.IP = a
		return nil
	}
	m.advance()
	return nil
}

func (m *Machine) execRandom() error {
	n, err := m.pop()
	if err != nil {
		return err
	}
	if n.Sign() <= 0 {
		return vmerr.New(vmerr.NegativeRandomBound, "OpRandom bound must be positive, got %s", n.String())
	}
	r := new(big.Int).Rand(m.rng, n)
	if err := m.push(r); err != nil {
		return err
	}
	m.advance()
	return nil
}

// execInput suspends the machine. IP is left pointing at OpInput; the
// controller advances it via ProvideInput once a value arrives.
func (m *Machine) execInput() error {
	m.PendingInput = true
	return nil
}

func (m *Machine) execPeekChunk() error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.targetAddress(addr)
	if err != nil {
		return err
	}
	if err := m.push(m.Program[a]); err != nil {
		return err
	}
	m.advance()
	return nil
}

// execBuildChunk implements BuildChunk's wire format: top of stack is
// a pair count k, below it k (exp, prime_idx) pairs with
// the most recently pushed pair on top. It builds
// ∏ nth_prime(prime_idx_i)^exp_i, appends the checksum factor, and
// pushes the resulting chunk.
func (m *Machine) execBuildChunk() error {
	kVal, err := m.pop()
	if err != nil {
		return err
	}
	if !kVal.IsInt64() || kVal.Int64() < 1 {
		return vmerr.New(vmerr.EncodingError, "BuildChunk pair count must be a positive integer, got %s", kVal.String())
	}
	k := kVal.Int64()

	payload := big.NewInt(1)
	var expSum int64
	for i := int64(0); i < k; i++ {
		expVal, err := m.pop()
		if err != nil {
			return err
		}
		primeIdxVal, err := m.pop()
		if err != nil {
			return err
		}
		if !expVal.IsInt64() || expVal.Int64() < 0 {
			return vmerr.New(vmerr.EncodingError, "BuildChunk exponent must be non-negative, got %s", expVal.String())
		}
		if !primeIdxVal.IsInt64() || primeIdxVal.Int64() < 0 {
			return vmerr.New(vmerr.EncodingError, "BuildChunk prime index must be non-negative, got %s", primeIdxVal.String())
		}
		exp := expVal.Int64()
		primeVal := codec.NthPrime(int(primeIdxVal.Int64()))
		payload.Mul(payload, new(big.Int).Exp(big.NewInt(primeVal), big.NewInt(exp), nil))
		expSum += exp
	}

	cksumExp := ((expSum % codec.ChecksumModulus) + codec.ChecksumModulus) % codec.ChecksumModulus
	payload.Mul(payload, new(big.Int).Exp(big.NewInt(codec.ChecksumPrime), big.NewInt(cksumExp), nil))

	if err := m.push(payload); err != nil {
		return err
	}
	m.advance()
	return nil
}

// execPokeChunk implements chunk,addr → (nothing): addr is on top of
// stack. The replacement chunk must decode successfully; an
// undecodable chunk halts the machine rather than corrupting program
// memory.
func (m *Machine) execPokeChunk() error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	chunk, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.targetAddress(addr)
	if err != nil {
		return err
	}
	if _, err := m.cache.Decode(chunk); err != nil {
		return err
	}
	m.Program[a] = new(big.Int).Set(chunk)
	m.advance()
	return nil
}

// execFactorize implements chunk → opcode_idx, operands...: the chunk
// is decoded and its opcode index is pushed first, then each operand
// in declared order, so the last operand ends on top of stack.
func (m *Machine) execFactorize() error {
	chunk, err := m.pop()
	if err != nil {
		return err
	}
	dec, err := m.cache.Decode(chunk)
	if err != nil {
		return err
	}
	if err := m.push(big.NewInt(int64(dec.Opcode))); err != nil {
		return err
	}
	for _, v := range dec.Operands {
		if err := m.push(big.NewInt(v)); err != nil {
			return err
		}
	}
	m.advance()
	return nil
}

func (m *Machine) execHalt() error {
	m.Halted = true
	return nil
}
