package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

var maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ParseAmount parses a human-entered SOL amount. Non-numeric or
// non-positive input fails with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, d)
	}
	return d, nil
}

// ToLamports converts a decimal SOL amount to lamports. Digits below one
// lamport truncate toward zero; an amount that truncates to zero lamports
// or does not fit in uint64 fails with ErrInvalidAmount.
func ToLamports(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}

	lamports := amount.Shift(9).Truncate(0)
	if lamports.IsZero() {
		return 0, fmt.Errorf("%w: %s SOL is below one lamport", ErrInvalidAmount, amount)
	}
	if lamports.Cmp(maxLamports) > 0 {
		return 0, fmt.Errorf("%w: %s SOL exceeds the representable range", ErrInvalidAmount, amount)
	}

	return lamports.BigInt().Uint64(), nil
}
