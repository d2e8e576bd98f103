package challenge

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/zerodao-labs/challenges/fees"
)

// TotalAmount returns staking+sub_staking+earnings, checked against
// the 128-bit balance invariant.
func (r *Record) TotalAmount() (*uint256.Int, error) {
	sum, err := fees.CheckedAdd(&r.Pool.Staking, &r.Pool.SubStaking)
	if err != nil {
		return nil, err
	}
	return fees.CheckedAdd(sum, &r.Pool.Earnings)
}

// IsAllDone reports whether the current breakpoint upload is
// complete.
func (r *Record) IsAllDone() bool {
	return r.Progress.Total == r.Progress.Done
}

// CheckProgress reports the monotone-progress invariant: done never
// exceeds total.
func (r *Record) CheckProgress() bool {
	return r.Progress.Total >= r.Progress.Done
}

// IsChallenger reports whether who is this record's challenger.
func (r *Record) IsChallenger(who common.Address) bool {
	return r.Challenger == who
}

// IsPathfinder reports whether who is this record's pathfinder.
func (r *Record) IsPathfinder(who common.Address) bool {
	return r.Pathfinder == who
}

// NewProgress sets the total for the current upload round. Done is
// left untouched so repeated calls (one per Reply, for levels deeper
// than MaxUpdateCount) keep accumulating progress across calls.
func (r *Record) NewProgress(total uint32) {
	r.Progress.Total = total
}

// Advance bumps progress.Done by count, saturating at the uint32
// maximum (not at Total, so CheckProgress can catch an overshoot), and
// assigns who as the beneficiary if that completes the upload.
func (r *Record) Advance(count uint32, who common.Address) {
	r.Progress.Done = saturatingAddU32(r.Progress.Done, count)
	if r.IsAllDone() {
		r.Beneficiary = who
	}
}

// Restart resets the record to Free status, clearing joint benefits.
// When fullProbative is true the challenger takes over as pathfinder
// (the original keeps the challenger identity stable so the game can
// continue against the same challenger).
func (r *Record) Restart(fullProbative bool) {
	r.Status = StatusFree
	r.JointBenefits = false
	if fullProbative {
		r.Pathfinder = r.Challenger
	}
}

func saturatingAddU32(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(sum)
}
