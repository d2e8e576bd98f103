package orderedset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullOrderRoundTrip(t *testing.T) {
	bytesIn := []byte{0xAB, 0xCD, 0x01, 0x02}
	depth := len(bytesIn) / RANGE

	x, err := FullOrder(bytesIn).ToUint64()
	require.NoError(t, err)

	out := FromUint64(x, depth)
	require.True(t, out.Equal(bytesIn))
}

func TestFullOrderConnect(t *testing.T) {
	var f FullOrder
	f.Connect([]byte{0x01, 0x02})
	f.Connect([]byte{0x03, 0x04})
	require.Equal(t, FullOrder{0x01, 0x02, 0x03, 0x04}, f)
	require.True(t, f.Prefix(1).Equal(FullOrder{0x01, 0x02}))
}

func TestFullOrderTooDeep(t *testing.T) {
	_, err := FullOrder(make([]byte, DEEP*RANGE+1)).ToUint64()
	require.ErrorIs(t, err, ErrTooDeep)
}
