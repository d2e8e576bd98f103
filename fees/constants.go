// Package fees implements the sweeper eligibility, fee-split, and
// challenge-period gating rules.
package fees

import "github.com/holiman/uint256"

const (
	// SweeperPeriod is the number of blocks of inactivity after which a
	// third party may harvest a challenge for a fee.
	SweeperPeriod uint64 = 500

	// SweeperPickupRatioPerMille is the sweeper's cut of the pool,
	// expressed in parts per thousand (the original used
	// Perbill::from_perthousand(20), i.e. 2%).
	SweeperPickupRatioPerMille uint64 = 20
)

// MaxBalance128 bounds every Balance to the 128-bit range the domain
// commits to, even though the wider uint256.Int is used for overflow
// detection. checked-add paths must reject any sum exceeding this.
var MaxBalance128 = func() *uint256.Int {
	one := uint256.NewInt(1)
	shifted := new(uint256.Int).Lsh(one, 128)
	return new(uint256.Int).Sub(shifted, one)
}()

// CurrencyID distinguishes the currencies a Pool can denominate. Only
// BaseToken/ZDAO is ever staked or released by the challenge core
// (external.Currency is single-currency); SOCI is kept here so
// CurrencyID still names every value a Pool could in principle
// denominate.
type CurrencyID uint8

const (
	ZDAO CurrencyID = iota
	SOCI
)

// BaseToken is the currency staked and released by the challenge
// engine.
const BaseToken = ZDAO
