// Package sharemath provides overflow-safe arithmetic over signed 64-bit
// share counts. Every operation here widens to a 128-bit-capable
// intermediate (via math/big, the same multiply-then-divide idiom the
// teacher's native/creator vault math uses) before narrowing back, so a
// caller never has to reason about int64 overflow directly.
package sharemath

import (
	"errors"
	"math/big"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

var (
	// ErrOverflow is returned when a result cannot be represented as a
	// signed 64-bit share count.
	ErrOverflow = errors.New("sharemath: result overflows int64")
	// ErrDivideByZero guards the ratio helpers.
	ErrDivideByZero = errors.New("sharemath: division by zero")

	minInt64 = big.NewInt(-9223372036854775808)
	maxInt64 = big.NewInt(9223372036854775807)
)

func narrow(v *big.Int) (types.Share, error) {
	if v.Cmp(minInt64) < 0 || v.Cmp(maxInt64) > 0 {
		return 0, ErrOverflow
	}
	return types.Share(v.Int64()), nil
}

// MulDiv computes floor(a*b/d) using a 128-bit-safe intermediate. Used for
// fee-rate application, ratio splits, and core-exchange-rate conversion.
func MulDiv(a, b, d types.Share) (types.Share, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	prod := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	prod.Quo(prod, big.NewInt(int64(d)))
	return narrow(prod)
}

// MulBps computes floor(a*bps/10000), the basis-point ratio helper used
// throughout the receiptor, fee, and award-split computations.
func MulBps(a types.Share, bps uint32) (types.Share, error) {
	return MulDiv(a, types.Share(bps), 10_000)
}

// Add returns a+b, erroring on overflow.
func Add(a, b types.Share) (types.Share, error) {
	sum := new(big.Int).Add(big.NewInt(int64(a)), big.NewInt(int64(b)))
	return narrow(sum)
}

// Sub returns a-b, erroring on overflow.
func Sub(a, b types.Share) (types.Share, error) {
	diff := new(big.Int).Sub(big.NewInt(int64(a)), big.NewInt(int64(b)))
	return narrow(diff)
}

// WeightedAverage computes floor((oldV*oldW + newV*newW) / (oldW+newW)),
// used by the voter effective-votes rolling update and witness average
// pledge update.
func WeightedAverage(oldV, newV types.Share, oldW, newW uint64) (types.Share, error) {
	totalW := oldW + newW
	if totalW == 0 {
		return 0, ErrDivideByZero
	}
	weighted := new(big.Int).Mul(big.NewInt(int64(oldV)), new(big.Int).SetUint64(oldW))
	weighted.Add(weighted, new(big.Int).Mul(big.NewInt(int64(newV)), new(big.Int).SetUint64(newW)))
	weighted.Quo(weighted, new(big.Int).SetUint64(totalW))
	return narrow(weighted)
}
