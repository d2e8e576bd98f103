package challenge

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/zerodao-labs/challenges/external"
	"github.com/zerodao-labs/challenges/fees"
	"github.com/zerodao-labs/challenges/store"
	"github.com/zerodao-labs/challenges/telemetry"
)

var log = logrus.WithField("pkg", "challenge")

const recordsPrefix = "challenge/records/"

// Engine is the challenge state machine over a store.Store. It
// depends only on the external capability interfaces, never on a
// concrete trust graph, reputation registry, or currency
// implementation.
type Engine struct {
	records         store.Typed[Record]
	currency        external.Currency
	reputation      external.Reputation
	sink            EventSink
	challengePeriod uint64
	stakingAmount   uint256.Int
	metrics         *telemetry.Metrics
}

// SetMetrics attaches a telemetry.Metrics bundle; nil disables
// reporting. Not safe to call concurrently with other Engine methods.
func (e *Engine) SetMetrics(m *telemetry.Metrics) {
	e.metrics = m
}

// NewEngine constructs an Engine backed by backend, with the given
// challenge period (in blocks) and the fixed per-challenge staking
// amount a challenger must post on New.
func NewEngine(backend store.Store, currency external.Currency, reputation external.Reputation, challengePeriod uint64, stakingAmount uint256.Int, sink EventSink) *Engine {
	return &Engine{
		records:         store.NewTyped[Record](backend, recordsPrefix),
		currency:        currency,
		reputation:      reputation,
		sink:            sink,
		challengePeriod: challengePeriod,
		stakingAmount:   stakingAmount,
	}
}

func (e *Engine) emit(ev Event) {
	if e.sink != nil {
		e.sink.Emit(ev)
	}
}

// IsAllHarvest reports whether no records remain under appID.
func (e *Engine) IsAllHarvest(ctx context.Context, appID AppID) (bool, error) {
	found := false
	err := e.records.IterPrefix(ctx, appID[:], func(key []byte, _ Record) error {
		found = true
		return nil
	})
	return !found, err
}

// Peek reads the current record for (appID, target) without mutating
// it, so a caller can derive depth-relative state — the sub-range
// index a prior Question picked, or the pathfinder currently on
// file — before issuing a Reply, Question, or Arbitral of its own.
func (e *Engine) Peek(ctx context.Context, appID AppID, target common.Address) (Record, bool, error) {
	return e.records.Get(ctx, Key{AppID: appID, Target: target}.Bytes())
}

// New opens a challenge. Any prior record at (appID, target) must be
// harvestable before it's overwritten; stakingAmount is staked from
// who inside the same transactional mutate as that check, so a
// rejected guard never leaves a dangling stake. The record starts in
// Examine, ready for the pathfinder's first Reply.
func (e *Engine) New(
	ctx context.Context,
	appID AppID,
	who common.Address,
	pathfinder common.Address,
	fee *uint256.Int,
	staking *uint256.Int,
	target common.Address,
	quantity uint32,
	score uint64,
	now uint64,
) error {
	key := Key{AppID: appID, Target: target}.Bytes()
	err := e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if exists && !(rec.LastUpdate+e.challengePeriod < now) {
			return Record{}, false, ErrNoChallengeAllowed
		}

		if err := e.currency.Staking(ctx, who, e.stakingAmount); err != nil {
			return Record{}, false, err
		}

		newStaking, err := fees.CheckedAdd(&rec.Pool.Staking, staking)
		if err != nil {
			return Record{}, false, ErrOverflow
		}
		newEarnings, err := fees.CheckedAdd(&rec.Pool.Earnings, fee)
		if err != nil {
			return Record{}, false, ErrOverflow
		}
		rec.Pool.Staking = *newStaking
		rec.Pool.Earnings = *newEarnings
		rec.Progress = Progress{Owner: who, Total: quantity, Done: 0}
		rec.Beneficiary = pathfinder
		rec.LastUpdate = now
		rec.Status = StatusExamine
		rec.Score = score
		rec.Pathfinder = pathfinder
		rec.Challenger = who
		return rec, false, nil
	}, key)
	if err != nil {
		return err
	}

	if err := e.reputation.LastChallengeAt(ctx); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"target":     target,
		"challenger": who,
		"pathfinder": pathfinder,
		"quantity":   quantity,
	}).Info("opened challenge")

	e.emit(Challenged{Challenger: who, Target: target, Pathfinder: pathfinder, Quantity: quantity})
	if e.metrics != nil {
		e.metrics.ChallengesOpened.Inc()
	}
	return nil
}

// Next advances the current upload by count, regardless of phase,
// handing the callback the record's staking pool, remark, and
// whether this call completes the upload; the callback returns the
// new remark to persist. Guarded by progress ownership, not by role,
// since both parties use Next depending on who currently holds
// progress.Owner.
func (e *Engine) Next(
	ctx context.Context,
	appID AppID,
	who common.Address,
	target common.Address,
	count uint32,
	up func(staking *uint256.Int, remark uint32, allDone bool) (uint32, error),
) error {
	key := Key{AppID: appID, Target: target}.Bytes()
	return e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}
		newDone, allDone, err := nextProgress(&rec.Progress, count, who)
		if err != nil {
			return Record{}, false, err
		}
		rec.Progress.Done = newDone
		if allDone {
			rec.Beneficiary = who
		}
		newRemark, err := up(&rec.Pool.Staking, rec.Remark, allDone)
		if err != nil {
			return Record{}, false, err
		}
		rec.Remark = newRemark
		return rec, false, nil
	}, key)
}

// nextProgress implements get_new_progress from the original pallet:
// count must not exceed MAX_UPDATE_COUNT, who must own progress, and
// the new done count must not exceed total.
func nextProgress(p *Progress, count uint32, who common.Address) (newDone uint32, allDone bool, err error) {
	if count > MaxUpdateCount {
		return 0, false, ErrNoPermission
	}
	if p.Owner != who {
		return 0, false, ErrNoPermission
	}
	newDone = p.Done + count
	if p.Total < newDone {
		return 0, false, ErrProgress
	}
	return newDone, newDone == p.Total, nil
}

// Question lets the challenger pick a sub-range index once the
// pathfinder's Reply is complete, moving the record to Examine at the
// next depth and carrying the index forward via Remark.
func (e *Engine) Question(ctx context.Context, appID AppID, who common.Address, target common.Address, index uint32, now uint64) error {
	key := Key{AppID: appID, Target: target}.Bytes()
	return e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}
		if rec.Status != StatusReply || !rec.IsAllDone() {
			return Record{}, false, ErrNoChallengeAllowed
		}
		if !rec.IsChallenger(who) {
			return Record{}, false, ErrNoChallengeAllowed
		}
		rec.Status = StatusExamine
		rec.Remark = index
		// The next depth starts a fresh upload for the pathfinder's Reply.
		rec.Progress.Total = 0
		rec.Progress.Done = 0
		rec.Beneficiary = who
		rec.LastUpdate = now
		return rec, false, nil
	}, key)
}

// Reply lets the pathfinder commit (or extend) the current
// commitment level. up(allDone, remark) performs the domain-specific
// score-conservation check and returns an error to abort if it fails.
func (e *Engine) Reply(
	ctx context.Context,
	appID AppID,
	who common.Address,
	target common.Address,
	total uint32,
	count uint32,
	now uint64,
	up func(allDone bool, remark uint32) error,
) error {
	key := Key{AppID: appID, Target: target}.Bytes()
	return e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}
		if !rec.IsPathfinder(who) {
			return Record{}, false, ErrNoPermission
		}
		if rec.Status != StatusExamine {
			return Record{}, false, ErrNoPermission
		}
		if count > MaxUpdateCount {
			return Record{}, false, ErrTooMany
		}

		rec.NewProgress(total)
		rec.Advance(count, who)
		if !rec.CheckProgress() {
			return Record{}, false, ErrTooMany
		}

		allDone := rec.IsAllDone()
		if allDone {
			rec.Status = StatusReply
		}
		if err := up(allDone, rec.Remark); err != nil {
			return Record{}, false, err
		}
		rec.LastUpdate = now
		return rec, false, nil
	}, key)
}

// NewEvidence is the leaf-level evidence submission. up inspects
// remark and the candidate score and reports whether the dispute
// needs arbitration;
// when it doesn't, the record restarts with the challenger promoted
// to pathfinder.
func (e *Engine) NewEvidence(
	ctx context.Context,
	appID AppID,
	who common.Address,
	target common.Address,
	up func(remark uint32, score uint64) (needsArbitration bool, err error),
) (*uint64, error) {
	key := Key{AppID: appID, Target: target}.Bytes()
	var settledScore *uint64

	err := e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}
		if !rec.IsChallenger(who) {
			return Record{}, false, ErrNoPermission
		}
		if !rec.IsAllDone() {
			return Record{}, false, ErrNoPermission
		}

		needsArbitration, err := up(rec.Remark, rec.Score)
		if err != nil {
			return Record{}, false, err
		}
		if needsArbitration {
			rec.Status = StatusArbitration
		} else {
			score := rec.Score
			settledScore = &score
			rec.Restart(true)
		}
		return rec, false, nil
	}, key)
	if err != nil {
		return nil, err
	}
	return settledScore, nil
}

// Arbitral is the arbitration step. up inspects remark and decides
// (jointBenefits, restart). A restart
// either splits half the staking pool to the arbitrator (when
// jointBenefits) and resets the game, or, when restart is false,
// settles the contested score in place.
func (e *Engine) Arbitral(
	ctx context.Context,
	appID AppID,
	who common.Address,
	target common.Address,
	score uint64,
	up func(remark uint32) (jointBenefits bool, restart bool, err error),
) error {
	key := Key{AppID: appID, Target: target}.Bytes()
	err := e.records.Mutate(ctx, func(rec Record, exists bool) (Record, bool, error) {
		if !exists {
			return Record{}, false, ErrNonExistent
		}
		if !rec.IsAllDone() {
			return Record{}, false, ErrNoPermission
		}

		jointBenefits, restart, err := up(rec.Remark)
		if err != nil {
			return Record{}, false, err
		}

		if restart {
			if jointBenefits {
				half, err := halve(&rec.Pool.Staking)
				if err != nil {
					return Record{}, false, ErrOverflow
				}
				remaining, err := fees.CheckedSub(&rec.Pool.Staking, half)
				if err != nil {
					return Record{}, false, ErrOverflow
				}
				rec.Pool.Staking = *remaining
				if err := e.currency.Release(ctx, who, *half); err != nil {
					return Record{}, false, err
				}
			}
			rec.Restart(!jointBenefits)
		} else {
			if jointBenefits {
				rec.JointBenefits = true
			}
			rec.Score = score
		}
		return rec, false, nil
	}, key)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.ArbitrationsResolved.Inc()
	}
	return nil
}

func halve(amount *uint256.Int) (*uint256.Int, error) {
	return new(uint256.Int).Div(amount, uint256.NewInt(2)), nil
}

// MaxUpdateCount bounds the breakpoint-transfer size per call.
const MaxUpdateCount = 10
