package verify

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/zerodao-labs/challenges/challenge"
	"github.com/zerodao-labs/challenges/fingerprint"
	"github.com/zerodao-labs/challenges/orderedset"
)

type fakeGraph struct{ err error }

func (g fakeGraph) ValidNodes(ctx context.Context, nodes []common.Address) error { return g.err }

func addr(b byte) common.Address {
	var a common.Address
	a[0] = b
	return a
}

func TestResultHashesOK(t *testing.T) {
	start, stop := addr(1), addr(2)
	order, err := fingerprint.MakeFullOrder(start, stop, 1)
	require.NoError(t, err)

	cells := []challenge.ResultHash{
		{Order: order, Score: 40},
	}
	require.NoError(t, ResultHashes(cells, start, stop, 1, 40))
}

func TestResultHashesScoreMismatch(t *testing.T) {
	start, stop := addr(1), addr(2)
	order, err := fingerprint.MakeFullOrder(start, stop, 1)
	require.NoError(t, err)

	cells := []challenge.ResultHash{{Order: order, Score: 40}}
	err = ResultHashes(cells, start, stop, 1, 41)
	require.ErrorIs(t, err, ErrScoreMismatch)
}

func TestPathValid(t *testing.T) {
	target := addr(5)
	p := challenge.Path{Nodes: []common.Address{addr(1), target, addr(9)}, Total: 2}
	require.NoError(t, Path(context.Background(), fakeGraph{}, p, target, 50))
}

func TestPathTooShort(t *testing.T) {
	p := challenge.Path{Nodes: []common.Address{addr(1)}}
	err := Path(context.Background(), fakeGraph{}, p, addr(1), 50)
	require.ErrorIs(t, err, ErrPathTooShort)
}

func TestPathMissingTarget(t *testing.T) {
	p := challenge.Path{Nodes: []common.Address{addr(1), addr(2)}}
	err := Path(context.Background(), fakeGraph{}, p, addr(9), 50)
	require.ErrorIs(t, err, ErrNoTargetNode)
}

func TestContribution(t *testing.T) {
	require.Equal(t, uint32(50), Contribution(2))
	require.Equal(t, uint32(0), Contribution(0))
}

func TestOmissionBracket(t *testing.T) {
	var level orderedset.Set[challenge.ResultHash]
	below := challenge.ResultHash{Order: []byte{0x00, 0x00}, Score: 1}
	above := challenge.ResultHash{Order: []byte{0xff, 0xff}, Score: 1}
	require.NoError(t, level.Insert(below))
	require.NoError(t, level.Insert(above))

	start, stop := addr(3), addr(4)
	err := Omission(&level, start, stop, 1, &below, &above)
	require.NoError(t, err)
}
