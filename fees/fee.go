package fees

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ErrOverflow signals a checked arithmetic operation would exceed
// MaxBalance128 or wrap the underlying uint256.
var ErrOverflow = errors.New("balance overflow")

// ErrTooSoon signals a temporal gate (sweeper period or challenge
// period) has not yet elapsed.
var ErrTooSoon = errors.New("too soon")

// CheckedAdd adds x and y, rejecting both uint256 overflow and any
// result exceeding MaxBalance128: a balance never overflows a 128-bit
// unsigned integer.
func CheckedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow || sum.Gt(MaxBalance128) {
		return nil, ErrOverflow
	}
	return sum, nil
}

// CheckedSub subtracts y from x, rejecting underflow.
func CheckedSub(x, y *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrOverflow
	}
	return diff, nil
}

// IsAllowedSweeper reports whether a sweeper (neither challenger nor
// pathfinder) may act, i.e. last+SweeperPeriod < now.
func IsAllowedSweeper(last, now uint64) bool {
	return last+SweeperPeriod < now
}

// WithFee splits amount into (sweeperFee, remainder) using the floor
// of ratio*amount, unconditionally — it does not check eligibility.
func WithFee(amount *uint256.Int) (sweeperFee, remainder *uint256.Int) {
	sweeperFee = new(uint256.Int).Mul(amount, uint256.NewInt(SweeperPickupRatioPerMille))
	sweeperFee.Div(sweeperFee, uint256.NewInt(1000))
	remainder = new(uint256.Int).Sub(amount, sweeperFee)
	return sweeperFee, remainder
}

// CheckedWithFee returns WithFee(amount) only if the sweeper is
// eligible to act at now given the record's last update; otherwise it
// reports ok=false.
func CheckedWithFee(amount *uint256.Int, last, now uint64) (sweeperFee, remainder *uint256.Int, ok bool) {
	if !IsAllowedSweeper(last, now) {
		return nil, nil, false
	}
	sweeperFee, remainder = WithFee(amount)
	return sweeperFee, remainder, true
}

// CheckedSweeperFee implements the harvest-eligibility branch: a
// third party (isSweeper) may harvest only once SweeperPeriod has
// elapsed, in exchange for a fee; a party to the challenge
// (challenger or pathfinder) may harvest for free, but only once the
// full challenge period has elapsed since the last update.
func CheckedSweeperFee(isSweeper bool, lastUpdate, now, challengePeriod uint64, total *uint256.Int) (sweeperFee, awards *uint256.Int, err error) {
	if isSweeper {
		fee, remainder, ok := CheckedWithFee(total, lastUpdate, now)
		if !ok {
			return nil, nil, ErrTooSoon
		}
		return fee, remainder, nil
	}
	if lastUpdate+challengePeriod > now {
		return nil, nil, ErrTooSoon
	}
	return uint256.NewInt(0), total, nil
}
