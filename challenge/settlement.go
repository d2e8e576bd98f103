package challenge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/zerodao-labs/challenges/fees"
)

// Harvest implements the settlement step. It is permitted from any
// status: awards split by terminal status per splitAwards, and a
// record on Free/Reply has never been disputed so the pathfinder's
// published score already stands — nothing further to gate on.
// isSweeper distinguishes a third-party sweeper harvest (fee-bearing,
// gated by fees.SweeperPeriod) from a party harvest (free, gated by
// the full challenge period). The pool's staking+sub_staking+earnings
// is split between sweeper fee (if any) and the two parties, then the
// record is deleted. When the terminal status returns the contested
// score rather than settling it via a restart, Harvest reports it via
// the returned *uint64.
//
// The sweeper fee is released only to the sweeper; the computed
// pathfinder/challenger split is released to them — keeping the two
// flows separate avoids conflating the sweeper's cut with the
// parties' award.
func (e *Engine) Harvest(
	ctx context.Context,
	appID AppID,
	sweeper common.Address,
	isSweeper bool,
	target common.Address,
	now uint64,
) (*uint64, error) {
	key := Key{AppID: appID, Target: target}.Bytes()
	var settledTotal *uint256.Int
	var settledScore *uint64
	err := e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}

		total, err := rec.TotalAmount()
		if err != nil {
			return Record{}, false, err
		}
		settledTotal = total

		sweeperFee, awards, err := fees.CheckedSweeperFee(isSweeper, rec.LastUpdate, now, e.challengePeriod, total)
		if err != nil {
			return Record{}, false, err
		}

		pathfinderAmount, challengerAmount, returnsScore := splitAwards(awards, rec.Status, rec.JointBenefits)
		if returnsScore {
			score := rec.Score
			settledScore = &score
		}

		if isSweeper && sweeperFee.Sign() > 0 {
			if err := e.currency.Release(ctx, sweeper, *sweeperFee); err != nil {
				return Record{}, false, err
			}
		}
		if pathfinderAmount.Sign() > 0 {
			if err := e.currency.Release(ctx, rec.Pathfinder, *pathfinderAmount); err != nil {
				return Record{}, false, err
			}
		}
		if challengerAmount.Sign() > 0 {
			if err := e.currency.Release(ctx, rec.Challenger, *challengerAmount); err != nil {
				return Record{}, false, err
			}
		}

		return Record{}, true, nil
	}, key)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		if isSweeper {
			e.metrics.SweeperHarvests.Inc()
		} else {
			e.metrics.PartyHarvests.Inc()
		}
		if settledTotal != nil {
			f, _ := new(big.Float).SetInt(settledTotal.ToBig()).Float64()
			e.metrics.SettlementAmount.Observe(f)
		}
	}
	return settledScore, nil
}

// splitAwards divides awards between the pathfinder and the
// challenger by terminal status, and reports whether the contested
// score is thereby returned (settled in place) rather than resolved
// by an earlier restart:
//
//	Free, Reply:                      pathfinder=awards, challenger=0,   no score
//	Examine, Evidence:                pathfinder=0,      challenger=awards, score
//	Arbitration, jointBenefits=true:  pathfinder=awards/2, challenger=awards-awards/2, no score
//	Arbitration, jointBenefits=false: pathfinder=awards, challenger=0,   score
//
// A record opened with the same address as challenger and pathfinder
// (as cmd/challengesim does) has Challenger == Pathfinder, so the
// whole award lands on that one address whatever the split.
func splitAwards(awards *uint256.Int, status Status, jointBenefits bool) (pathfinderAmount, challengerAmount *uint256.Int, returnsScore bool) {
	switch status {
	case StatusFree, StatusReply:
		return new(uint256.Int).Set(awards), uint256.NewInt(0), false
	case StatusExamine, StatusEvidence:
		return uint256.NewInt(0), new(uint256.Int).Set(awards), true
	case StatusArbitration:
		if jointBenefits {
			half := new(uint256.Int).Div(awards, uint256.NewInt(2))
			remainder := new(uint256.Int).Sub(awards, half)
			return half, remainder, false
		}
		return new(uint256.Int).Set(awards), uint256.NewInt(0), true
	default:
		return uint256.NewInt(0), uint256.NewInt(0), false
	}
}
