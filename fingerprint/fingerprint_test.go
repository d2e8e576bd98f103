package fingerprint

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestMakeFullOrderDeterministic(t *testing.T) {
	start := common.HexToAddress("0x1111111111111111111111111111111111111111")
	stop := common.HexToAddress("0x2222222222222222222222222222222222222222")

	a, err := MakeFullOrder(start, stop, 2)
	require.NoError(t, err)
	b, err := MakeFullOrder(start, stop, 2)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 4)

	reversed, err := MakeFullOrder(stop, start, 2)
	require.NoError(t, err)
	require.NotEqual(t, a, reversed)
}

func TestMakeFullOrderDepthVaries(t *testing.T) {
	start := common.HexToAddress("0x1111111111111111111111111111111111111111")
	stop := common.HexToAddress("0x2222222222222222222222222222222222222222")

	shallow, err := MakeFullOrder(start, stop, 1)
	require.NoError(t, err)
	require.Len(t, shallow, 2)

	deep, err := MakeFullOrder(start, stop, 4)
	require.NoError(t, err)
	require.Len(t, deep, 8)
	require.Equal(t, shallow, deep[len(deep)-2:])
}
