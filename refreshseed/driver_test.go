package refreshseed

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zerodao-labs/challenges/challenge"
	"github.com/zerodao-labs/challenges/external"
	"github.com/zerodao-labs/challenges/fingerprint"
	"github.com/zerodao-labs/challenges/store"
)

type fakeGraph struct{ err error }

func (g fakeGraph) ValidNodes(ctx context.Context, nodes []common.Address) error { return g.err }

type fakeReputation struct {
	step          external.TIRStep
	lastRefreshAt uint64
}

func (f *fakeReputation) IsStep(ctx context.Context, step external.TIRStep) (bool, error) {
	return f.step == step, nil
}
func (f *fakeReputation) LastChallengeAt(ctx context.Context) error { return nil }
func (f *fakeReputation) GetLastRefreshAt(ctx context.Context) (uint64, error) {
	return f.lastRefreshAt, nil
}

type fakeSeeds struct{ removed bool }

func (s *fakeSeeds) RemoveAll(ctx context.Context) error {
	s.removed = true
	return nil
}

type fakeClock struct{ now uint64 }

func (c fakeClock) BlockNumber(ctx context.Context) (uint64, error) { return c.now, nil }

type fakeCurrency struct{}

func (fakeCurrency) Staking(ctx context.Context, who common.Address, amount external.Balance) error {
	return nil
}
func (fakeCurrency) Release(ctx context.Context, who common.Address, amount external.Balance) error {
	return nil
}

func addr(b byte) common.Address {
	var a common.Address
	a[0] = b
	return a
}

func newTestDriver(graphErr error) (*Driver, *fakeSeeds) {
	d, seeds, _ := newTestDriverAndEngine(graphErr)
	return d, seeds
}

func newTestDriverAndEngine(graphErr error) (*Driver, *fakeSeeds, *challenge.Engine) {
	backend := store.NewMemStore()
	reputation := &fakeReputation{step: external.StepSeed}
	engine := challenge.NewEngine(backend, fakeCurrency{}, reputation, 100, *uint256.NewInt(0), nil)
	seeds := &fakeSeeds{}
	d := NewDriver(backend, engine, fakeGraph{err: graphErr}, reputation, seeds, fakeClock{}, 2, 50, nil)
	return d, seeds, engine
}

func TestCandidateInsertAndScoreList(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(nil)
	target := addr(1)
	pathfinder := addr(2)

	require.NoError(t, d.CandidateInsert(ctx, target, pathfinder, 80, 10))
	c, ok, err := d.candidates.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(80), c.Score)

	sl, err := d.getScoreList(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{80}, sl.Scores())
}

func TestHandFirstTimeTrimsAndClearsSeeds(t *testing.T) {
	ctx := context.Background()
	d, seeds := newTestDriver(nil)

	require.NoError(t, d.CandidateInsert(ctx, addr(1), addr(11), 10, 0))
	require.NoError(t, d.CandidateInsert(ctx, addr(2), addr(12), 30, 0))
	require.NoError(t, d.CandidateInsert(ctx, addr(3), addr(13), 20, 0))

	require.NoError(t, d.HandFirstTime(ctx))
	require.True(t, seeds.removed)

	sl, err := d.getScoreList(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{20, 30}, sl.Scores())
}

func TestRestartUpdatesCandidateAndScoreList(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(nil)
	target := addr(1)
	pathfinder := addr(2)
	challenger := addr(3)

	require.NoError(t, d.CandidateInsert(ctx, target, pathfinder, 10, 0))
	require.NoError(t, d.Restart(ctx, target, challenger, 25))

	c, ok, err := d.candidates.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(25), c.Score)
	require.Equal(t, challenger, c.Pathfinder)

	sl, err := d.getScoreList(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{25}, sl.Scores())
}

func TestCheckMidPathRejectsInvalidGraph(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(challenge.ErrNotMatch)
	_, err := d.CheckMidPath(ctx, []common.Address{addr(5)}, addr(1), addr(2))
	require.ErrorIs(t, err, challenge.ErrNotMatch)
}

func TestCheckStepRequiresSeedStep(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(nil)
	require.NoError(t, d.CheckStep(ctx))

	d.reputation = &fakeReputation{step: external.StepFree}
	err := d.CheckStep(ctx)
	require.ErrorIs(t, err, ErrStepNotMatch)
}

// setUpLeafChallenge opens a one-level challenge and publishes its only
// commitment level through PublishLevel, leaving the record in Reply
// with its upload all done.
func setUpLeafChallenge(t *testing.T, ctx context.Context, d *Driver, engine *challenge.Engine, target, pathfinder, challenger common.Address, score uint64) {
	t.Helper()
	require.NoError(t, d.CandidateInsert(ctx, target, pathfinder, score, 0))
	require.NoError(t, engine.New(ctx, AppID, challenger, pathfinder, uint256.NewInt(0), uint256.NewInt(0), target, 1, score, 1000))

	start, stop := addr(5), addr(6)
	order, err := fingerprint.MakeFullOrder(start, stop, 1)
	require.NoError(t, err)
	cells := []challenge.ResultHash{{Order: order, Score: score}}
	require.NoError(t, d.PublishLevel(ctx, pathfinder, target, start, stop, 1, 1010, cells))
}

func TestPublishLevelWiresReplyAndQuestion(t *testing.T) {
	ctx := context.Background()
	d, _, engine := newTestDriverAndEngine(nil)
	target := addr(1)
	pathfinder := addr(2)
	challenger := addr(3)

	setUpLeafChallenge(t, ctx, d, engine, target, pathfinder, challenger, 40)

	rec, ok, err := engine.Peek(ctx, AppID, target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenge.StatusReply, rec.Status)

	lv, ok, err := d.levels.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, lv.Levels, 1)
	require.Equal(t, uint64(40), lv.Levels[0].Items[0].Score)

	require.NoError(t, d.AskQuestion(ctx, challenger, target, 0, 1020))

	rec, ok, err = engine.Peek(ctx, AppID, target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenge.StatusExamine, rec.Status)
	require.Equal(t, uint32(0), rec.Remark)
}

func TestPublishLevelRejectsWrongParentScore(t *testing.T) {
	ctx := context.Background()
	d, _, engine := newTestDriverAndEngine(nil)
	target := addr(1)
	pathfinder := addr(2)
	challenger := addr(3)

	require.NoError(t, d.CandidateInsert(ctx, target, pathfinder, 40, 0))
	require.NoError(t, engine.New(ctx, AppID, challenger, pathfinder, uint256.NewInt(0), uint256.NewInt(0), target, 1, 40, 1000))

	start, stop := addr(5), addr(6)
	order, err := fingerprint.MakeFullOrder(start, stop, 1)
	require.NoError(t, err)
	cells := []challenge.ResultHash{{Order: order, Score: 41}}
	err = d.PublishLevel(ctx, pathfinder, target, start, stop, 1, 1010, cells)
	require.Error(t, err)

	rec, ok, err := engine.Peek(ctx, AppID, target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenge.StatusExamine, rec.Status)
}

func TestResolveArbitrationRestartPromotesChallenger(t *testing.T) {
	ctx := context.Background()
	d, _, engine := newTestDriverAndEngine(nil)
	target := addr(1)
	pathfinder := addr(2)
	challenger := addr(3)
	arbitrator := addr(4)

	setUpLeafChallenge(t, ctx, d, engine, target, pathfinder, challenger, 40)

	require.NoError(t, d.ResolveArbitration(ctx, arbitrator, target, 25, false, true))

	rec, ok, err := engine.Peek(ctx, AppID, target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenge.StatusFree, rec.Status)
	require.Equal(t, challenger, rec.Pathfinder)

	c, ok, err := d.candidates.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenger, c.Pathfinder)
	require.False(t, c.HasChallenge)

	_, ok, err = d.levels.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveArbitrationSettlesScoreInPlace(t *testing.T) {
	ctx := context.Background()
	d, _, engine := newTestDriverAndEngine(nil)
	target := addr(1)
	pathfinder := addr(2)
	challenger := addr(3)
	arbitrator := addr(4)

	setUpLeafChallenge(t, ctx, d, engine, target, pathfinder, challenger, 40)

	// The challenger's evidence moves the dispute to arbitration.
	_, err := engine.NewEvidence(ctx, AppID, challenger, target, func(uint32, uint64) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)

	require.NoError(t, d.ResolveArbitration(ctx, arbitrator, target, 77, false, false))

	rec, ok, err := engine.Peek(ctx, AppID, target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, challenge.StatusArbitration, rec.Status)
	require.Equal(t, uint64(77), rec.Score)

	// No restart means the driver's own bookkeeping is untouched.
	c, ok, err := d.candidates.Get(ctx, target.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pathfinder, c.Pathfinder)
}
