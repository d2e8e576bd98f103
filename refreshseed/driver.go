package refreshseed

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/zerodao-labs/challenges/challenge"
	"github.com/zerodao-labs/challenges/external"
	"github.com/zerodao-labs/challenges/fingerprint"
	"github.com/zerodao-labs/challenges/orderedset"
	"github.com/zerodao-labs/challenges/store"
	"github.com/zerodao-labs/challenges/telemetry"
	"github.com/zerodao-labs/challenges/verify"
)

var log = logrus.WithField("pkg", "refreshseed")

const (
	candidatesPrefix = "refreshseed/candidates/"
	levelsPrefix     = "refreshseed/levels/"
	pathsPrefix      = "refreshseed/paths/"
	missedPrefix     = "refreshseed/missed/"
	scoreListKey     = "refreshseed/score_list"
)

// resultLevels is the RLP-storable shape of a target's commitment
// levels: resultLevels.Levels[i] holds the sorted cells published at
// depth i+1.
type resultLevels struct {
	Levels []levelItems
}

type levelItems struct {
	Items []challenge.ResultHash
}

type pathList struct {
	Items []challenge.Path
}

type scoreListRLP struct {
	Scores []uint64
}

// Driver wires the refresh cycle's candidate bookkeeping to the
// challenge state machine, the trust graph, and the reputation
// registry.
type Driver struct {
	engine       *challenge.Engine
	candidates   store.Typed[Candidate]
	levels       store.Typed[resultLevels]
	paths        store.Typed[pathList]
	missed       store.Typed[challenge.MissedPath]
	scoreListRaw store.Typed[scoreListRLP]

	graph      external.TrustGraph
	reputation external.Reputation
	seeds      external.SeedRegistry
	clock      external.Clock
	sink       EventSink

	maxSeedCount       int
	confirmationPeriod uint64
	metrics            *telemetry.Metrics
}

// SetMetrics attaches a telemetry.Metrics bundle; nil disables
// reporting. Not safe to call concurrently with other Driver methods.
func (d *Driver) SetMetrics(m *telemetry.Metrics) {
	d.metrics = m
}

// NewDriver constructs a Driver over backend, wiring in the given
// challenge engine and external capabilities.
func NewDriver(
	backend store.Store,
	engine *challenge.Engine,
	graph external.TrustGraph,
	reputation external.Reputation,
	seeds external.SeedRegistry,
	clock external.Clock,
	maxSeedCount int,
	confirmationPeriod uint64,
	sink EventSink,
) *Driver {
	return &Driver{
		engine:              engine,
		candidates:          store.NewTyped[Candidate](backend, candidatesPrefix),
		levels:              store.NewTyped[resultLevels](backend, levelsPrefix),
		paths:               store.NewTyped[pathList](backend, pathsPrefix),
		missed:              store.NewTyped[challenge.MissedPath](backend, missedPrefix),
		scoreListRaw:        store.NewTyped[scoreListRLP](backend, scoreListKey),
		graph:               graph,
		reputation:          reputation,
		seeds:               seeds,
		clock:               clock,
		sink:                sink,
		maxSeedCount:        maxSeedCount,
		confirmationPeriod:  confirmationPeriod,
	}
}

func (d *Driver) emit(e Event) {
	if d.sink != nil {
		d.sink.Emit(e)
	}
}

// CheckStep requires the reputation pipeline to currently be in its
// seed-collection step.
func (d *Driver) CheckStep(ctx context.Context) error {
	ok, err := d.reputation.IsStep(ctx, external.StepSeed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStepNotMatch
	}
	return nil
}

// IsAllTimeout reports whether the confirmation period has elapsed
// since the last refresh cycle completed.
func (d *Driver) IsAllTimeout(ctx context.Context, now uint64) (bool, error) {
	last, err := d.reputation.GetLastRefreshAt(ctx)
	if err != nil {
		return false, err
	}
	return last+d.confirmationPeriod < now, nil
}

// IsAllHarvest reports whether every candidate has been finalized
// (no candidates remain).
func (d *Driver) IsAllHarvest(ctx context.Context) (bool, error) {
	found := false
	err := d.candidates.IterPrefix(ctx, nil, func(_ []byte, _ Candidate) error {
		found = true
		return nil
	})
	return !found, err
}

func (d *Driver) getScoreList(ctx context.Context) (ScoreList, error) {
	raw, ok, err := d.scoreListRaw.Get(ctx)
	if err != nil {
		return ScoreList{}, err
	}
	if !ok {
		return ScoreList{}, nil
	}
	var sl ScoreList
	sl.scores = append([]uint64(nil), raw.Scores...)
	return sl, nil
}

func (d *Driver) putScoreList(ctx context.Context, sl ScoreList) error {
	return d.scoreListRaw.Set(ctx, scoreListRLP{Scores: sl.scores})
}

// CandidateInsert records a pathfinder's first score claim for
// target and inserts it into the global score list.
func (d *Driver) CandidateInsert(ctx context.Context, target, pathfinder common.Address, score uint64, now uint64) error {
	if err := d.candidates.Set(ctx, Candidate{Score: score, Pathfinder: pathfinder, AddAt: now}, target.Bytes()); err != nil {
		return err
	}
	sl, err := d.getScoreList(ctx)
	if err != nil {
		return err
	}
	sl.Insert(score)
	return d.putScoreList(ctx, sl)
}

// MutateScore replaces oldScore with newScore in the global score
// list, without touching any candidate record.
func (d *Driver) MutateScore(ctx context.Context, oldScore, newScore uint64) error {
	sl, err := d.getScoreList(ctx)
	if err != nil {
		return err
	}
	sl.Remove(oldScore)
	sl.Insert(newScore)
	return d.putScoreList(ctx, sl)
}

// HandFirstTime trims the score list down to the top maxSeedCount
// entries and clears the seed registry for the next cycle
// (hand_first_time).
func (d *Driver) HandFirstTime(ctx context.Context) error {
	sl, err := d.getScoreList(ctx)
	if err != nil {
		return err
	}
	sl.TrimToSeedCount(d.maxSeedCount)
	if err := d.putScoreList(ctx, sl); err != nil {
		return err
	}
	if err := d.seeds.RemoveAll(ctx); err != nil {
		return err
	}
	d.emit(SeedsSelected{Count: uint32(sl.Len())})
	return nil
}

// RemoveChallenge clears every challenge artifact recorded for
// target: its commitment levels, its leaf paths, and any pending
// missed-path claim.
func (d *Driver) RemoveChallenge(ctx context.Context, target common.Address) error {
	key := target.Bytes()
	if err := d.paths.Delete(ctx, key); err != nil {
		return err
	}
	if err := d.levels.Delete(ctx, key); err != nil {
		return err
	}
	if err := d.missed.Delete(ctx, key); err != nil {
		return err
	}
	return nil
}

// Restart installs pathfinder's score as target's new leading
// candidate, updates the global score list, and clears the in-flight
// challenge game.
func (d *Driver) Restart(ctx context.Context, target, pathfinder common.Address, score uint64) error {
	// The score list lives on the same backend, so it is updated after
	// the candidate Mutate returns rather than inside its callback.
	var oldScore uint64
	err := d.candidates.Mutate(ctx, func(c Candidate, exists bool) (Candidate, bool, error) {
		if !exists {
			return Candidate{}, false, ErrNonExistent
		}
		oldScore = c.Score
		c.Score = score
		c.Pathfinder = pathfinder
		c.HasChallenge = false
		return c, false, nil
	}, target.Bytes())
	if err != nil {
		return err
	}
	if err := d.MutateScore(ctx, oldScore, score); err != nil {
		return err
	}
	if err := d.RemoveChallenge(ctx, target); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"target": target, "pathfinder": pathfinder, "score": score}).Info("challenge restarted")
	d.emit(ChallengeRestarted{Target: target, Score: score})
	if d.metrics != nil {
		d.metrics.ChallengesRestarted.Inc()
	}
	return nil
}

func (d *Driver) checkedNodes(ctx context.Context, nodes []common.Address, target common.Address) error {
	if len(nodes) < 2 {
		return ErrPathTooShort
	}
	contains := false
	for _, n := range nodes {
		if n == target {
			contains = true
			break
		}
	}
	if !contains {
		return ErrNoTargetNode
	}
	return d.graph.ValidNodes(ctx, nodes)
}

// CheckMidPath re-assembles a challenger-supplied middle segment into
// a full (start, ..., stop) path and validates it against the trust
// graph (check_mid_path).
func (d *Driver) CheckMidPath(ctx context.Context, midPath []common.Address, start, stop common.Address) ([]common.Address, error) {
	nodes := make([]common.Address, 0, len(midPath)+2)
	nodes = append(nodes, start)
	nodes = append(nodes, midPath...)
	nodes = append(nodes, stop)
	if err := d.graph.ValidNodes(ctx, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (d *Driver) getPathfinderPath(ctx context.Context, target common.Address, index uint32) (challenge.Path, error) {
	pl, ok, err := d.paths.Get(ctx, target.Bytes())
	if err != nil {
		return challenge.Path{}, err
	}
	if !ok {
		return challenge.Path{}, ErrPathDoesNotExist
	}
	if int(index) >= len(pl.Items) {
		return challenge.Path{}, ErrIndexExceedsMaximum
	}
	return pl.Items[index], nil
}

// DoReplyNum lets a challenger check that every mid-path segment it
// supplies, once bracketed between the pathfinder's published
// endpoints, forms a trust-graph-valid path — without advancing the
// challenge's breakpoint progress (do_reply_num). It rides the
// Engine.Next callback, since unlike Reply it neither commits a new
// remark nor requires a net bisection commitment count.
func (d *Driver) DoReplyNum(ctx context.Context, challenger, target common.Address, midPaths [][]common.Address) error {
	count := uint32(len(midPaths))
	// Store reads happen before Engine.Next, never inside its callback.
	rec, ok, err := d.engine.Peek(ctx, AppID, target)
	if err != nil {
		return err
	}
	if !ok {
		return challenge.ErrNonExistent
	}
	pPath, err := d.getPathfinderPath(ctx, target, rec.Remark)
	if err != nil {
		return err
	}
	return d.engine.Next(ctx, AppID, challenger, target, 0, func(_ *uint256.Int, remark uint32, _ bool) (uint32, error) {
		if count != pPath.Total {
			return 0, ErrLengthNotEqual
		}
		start, stop := pPath.Ends()
		for _, mid := range midPaths {
			if _, err := d.CheckMidPath(ctx, mid, start, stop); err != nil {
				return 0, err
			}
		}
		return remark, nil
	})
}

// EvidenceOfMissed lets a challenger claim the pathfinder's published
// commitment levels omit a valid path (evidence_of_missed). The claim
// must either bracket cleanly between the two commitment cells
// adjacent to index, or — once the pathfinder has published concrete
// leaf paths — must not duplicate one already on file for the same
// endpoints. Either way, a well-formed claim is recorded and handed
// to arbitration rather than settled unilaterally here: only the
// arbitrator (Engine.Arbitral) has the authority to pick a winner.
func (d *Driver) EvidenceOfMissed(ctx context.Context, challenger, target common.Address, nodes []common.Address, index uint32) error {
	if err := d.CheckStep(ctx); err != nil {
		return err
	}
	if err := d.checkedNodes(ctx, nodes, target); err != nil {
		return err
	}

	start, stop := nodes[0], nodes[len(nodes)-1]
	lv, ok, err := d.levels.Get(ctx, target.Bytes())
	if err != nil {
		return err
	}
	if !ok || len(lv.Levels) == 0 {
		return ErrResultHashNotExist
	}
	deep := len(lv.Levels)

	userOrder, err := fingerprint.MakeFullOrder(start, stop, deep)
	if err != nil {
		return err
	}
	userOrderValue, err := userOrder.ToUint64()
	if err != nil {
		return err
	}

	pl, hasPaths, err := d.paths.Get(ctx, target.Bytes())
	if err != nil {
		return err
	}
	_, err = d.engine.NewEvidence(ctx, AppID, challenger, target, func(_ uint32, _ uint64) (bool, error) {
		if hasPaths {
			for _, p := range pl.Items {
				ps, pe := p.Ends()
				if ps != start || pe != stop {
					continue
				}
				if len(p.Nodes) != len(nodes) {
					return false, ErrLengthNotEqual
				}
				if challenge.NodesEqual(p.Nodes, nodes) {
					return false, ErrAlreadyExist
				}
			}
			return true, nil
		}

		last := lv.Levels[deep-1].Items
		idx := int(index)
		if idx > len(last) {
			return false, ErrIndexExceedsMaximum
		}
		if idx > 0 {
			below, err := orderedset.FullOrder(last[idx-1].Order).ToUint64()
			if err != nil {
				return false, err
			}
			if below >= userOrderValue {
				return false, challenge.ErrPathIndexError
			}
		}
		if idx < len(last) {
			above, err := orderedset.FullOrder(last[idx].Order).ToUint64()
			if err != nil {
				return false, err
			}
			if above <= userOrderValue {
				return false, challenge.ErrPathIndexError
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	if err := d.missed.Set(ctx, challenge.MissedPath{Nodes: nodes}, target.Bytes()); err != nil {
		return err
	}
	d.emit(MissedPathPresented{Challenger: challenger, Target: target, Index: index})
	return nil
}

// parentScoreAt derives the score a commitment level at depth (the
// 1-indexed bisection depth, matching fingerprint.MakeFullOrder's
// convention) must sum to: the candidate's original claim at depth 1,
// or, deeper than that, the (depth-2)th prior level's cell at the
// sub-range index the last Question picked (carried as the record's
// Remark) — never a value the caller supplies directly
// (verify_result_hashs).
func (d *Driver) parentScoreAt(ctx context.Context, target common.Address, depth int) (uint64, error) {
	if depth <= 1 {
		c, ok, err := d.candidates.Get(ctx, target.Bytes())
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrNonExistent
		}
		return c.Score, nil
	}

	rec, ok, err := d.engine.Peek(ctx, AppID, target)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, challenge.ErrNonExistent
	}
	lv, ok, err := d.levels.Get(ctx, target.Bytes())
	if err != nil {
		return 0, err
	}
	if !ok || depth-2 >= len(lv.Levels) {
		return 0, ErrResultHashNotExist
	}
	parent := lv.Levels[depth-2].Items
	if int(rec.Remark) >= len(parent) {
		return 0, ErrIndexExceedsMaximum
	}
	return parent[rec.Remark].Score, nil
}

// PublishLevel records a pathfinder-submitted commitment level for
// target at the given depth, after checking every cell's order
// fingerprints its (start, stop) claim and that the cells sum to the
// parent cell's score, derived by parentScoreAt rather than trusted
// from the caller (update_result_hashs + verify_result_hashs, the
// non-leaf path). The cells are handed to Engine.Reply in
// MaxUpdateCount-sized chunks — one breakpoint-transfer step per
// chunk — gating the publish on who actually holding the pathfinder
// role for an Examine-status record before any of it is persisted.
func (d *Driver) PublishLevel(ctx context.Context, who, target, start, stop common.Address, depth int, now uint64, cells []challenge.ResultHash) error {
	parentScore, err := d.parentScoreAt(ctx, target, depth)
	if err != nil {
		return err
	}
	if err := verify.ResultHashes(cells, start, stop, depth, parentScore); err != nil {
		return err
	}
	var set orderedset.Set[challenge.ResultHash]
	if err := set.Extend(cells); err != nil {
		return err
	}

	total := uint32(len(cells))
	for done := uint32(0); done < total; {
		count := total - done
		if count > challenge.MaxUpdateCount {
			count = challenge.MaxUpdateCount
		}
		if err := d.engine.Reply(ctx, AppID, who, target, total, count, now, func(bool, uint32) error {
			return nil
		}); err != nil {
			return err
		}
		done += count
	}

	key := target.Bytes()
	return d.levels.Mutate(ctx, func(lv resultLevels, exists bool) (resultLevels, bool, error) {
		if depth != len(lv.Levels)+1 || depth > orderedset.DEEP {
			return resultLevels{}, false, challenge.ErrMaximumDepth
		}
		lv.Levels = append(lv.Levels, levelItems{Items: set.Items()})
		return lv, false, nil
	}, key)
}

// AskQuestion lets the challenger pick the next sub-range once the
// pathfinder's current commitment level is fully replied, advancing
// the record to Examine at the next depth (question).
func (d *Driver) AskQuestion(ctx context.Context, challenger, target common.Address, index uint32, now uint64) error {
	if err := d.CheckStep(ctx); err != nil {
		return err
	}
	return d.engine.Question(ctx, AppID, challenger, target, index, now)
}

// ResolveArbitration lets the arbitrator settle a dispute that's
// reached arbitration (arbitral). When restart is true the game
// re-opens — splitting half the staking pool to arbitrator when
// jointBenefits — and the driver's own candidate/score-list
// bookkeeping is brought into line with the engine's resulting
// pathfinder and score via Restart; when restart is false the
// contested score stands in place and no further driver bookkeeping
// is needed (Harvest later settles it from the record directly).
func (d *Driver) ResolveArbitration(ctx context.Context, arbitrator, target common.Address, score uint64, jointBenefits, restart bool) error {
	if err := d.engine.Arbitral(ctx, AppID, arbitrator, target, score, func(uint32) (bool, bool, error) {
		return jointBenefits, restart, nil
	}); err != nil {
		return err
	}
	if !restart {
		return nil
	}
	rec, ok, err := d.engine.Peek(ctx, AppID, target)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return d.Restart(ctx, target, rec.Pathfinder, rec.Score)
}

// PublishPaths records the pathfinder's leaf-level shortest-path
// witnesses for target, after checking each path against the trust
// graph and that their score contributions sum to the leaf result
// hash's carried score (verify_paths). leaf is the final cell
// PublishLevel already committed at the deepest depth, so this only
// files the concrete paths behind it; it doesn't itself advance
// Progress.
func (d *Driver) PublishPaths(ctx context.Context, target common.Address, leaf challenge.ResultHash, paths []challenge.Path) error {
	var total uint32
	for _, p := range paths {
		if len(p.Nodes) < 2 {
			return challenge.ErrPathTooShort
		}
		start, stop := p.Ends()
		if err := d.graph.ValidNodes(ctx, p.Nodes); err != nil {
			return err
		}
		if p.Total == 0 || p.Total >= 100 {
			return challenge.ErrPathTooLong
		}
		if start == stop {
			return challenge.ErrNoTargetNode
		}
		total += verify.Contribution(p.Total)
	}
	if uint64(total) != leaf.Score {
		return challenge.ErrScoreMismatch
	}
	return d.paths.Set(ctx, pathList{Items: paths}, target.Bytes())
}
