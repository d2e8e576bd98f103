// Package external defines the capability boundaries the challenge core
// depends on but never implements: the trust graph, the reputation
// registry, the currency, and the seed registry. Concrete backends for
// these live outside this module; the core only ever sees the
// interfaces below.
package external

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Balance is a non-negative token amount. The domain commits to values
// that fit in 128 bits (see fees.MaxBalance128), but the underlying
// type is the wider uint256.Int so that intermediate sums can be
// overflow-checked with AddOverflow/SubOverflow rather than wrapping
// silently.
type Balance = uint256.Int

// TrustGraph validates that a sequence of accounts forms a legal path
// in the trust graph (TrustBase::valid_nodes in the original pallet).
type TrustGraph interface {
	ValidNodes(ctx context.Context, nodes []common.Address) error
}

// TIRStep is the phase the reputation-inference pipeline is currently
// running, consumed by Reputation.IsStep.
type TIRStep uint8

const (
	StepFree TIRStep = iota
	StepSeed
	StepReputation
)

// Reputation is the reputation registry: it publishes the pipeline's
// current step, and the last time a challenge or refresh cycle ran.
type Reputation interface {
	IsStep(ctx context.Context, step TIRStep) (bool, error)
	LastChallengeAt(ctx context.Context) error
	GetLastRefreshAt(ctx context.Context) (uint64, error)
}

// Currency stakes and releases a single base token. Both operations
// are fallible and must be performed inside the same transactional
// scope as the state mutation they accompany (see store.Store.Mutate).
type Currency interface {
	Staking(ctx context.Context, who common.Address, amount Balance) error
	Release(ctx context.Context, who common.Address, amount Balance) error
}

// SeedRegistry persists the set of seeds selected at the end of a
// refresh cycle.
type SeedRegistry interface {
	RemoveAll(ctx context.Context) error
}

// Clock supplies the current block number. Never time.Now(): every
// operation in this module takes its "now" as an explicit argument
// sourced from a Clock at the call site, keeping the core
// deterministic and replay-safe.
type Clock interface {
	BlockNumber(ctx context.Context) (uint64, error)
}
