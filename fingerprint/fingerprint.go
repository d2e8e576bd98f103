// Package fingerprint computes the deterministic depth-sliced bucket
// key for a (start, stop) endpoint pair.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // collisions don't break safety: commitments also carry score, and depth bounds the bucket space.

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/zerodao-labs/challenges/orderedset"
)

// MakeFullOrder returns the tail of sha1(encode(start) || encode(stop))
// truncated to depth*RANGE bytes: the bucket key a path's endpoints
// fall into at the given commitment depth.
func MakeFullOrder(start, stop common.Address, depth int) (orderedset.FullOrder, error) {
	startBytes, err := rlp.EncodeToBytes(start)
	if err != nil {
		return nil, err
	}
	stopBytes, err := rlp.EncodeToBytes(stop)
	if err != nil {
		return nil, err
	}
	preimage := append(startBytes, stopBytes...)
	sum := sha1.Sum(preimage)

	width := depth * orderedset.RANGE
	if width > len(sum) {
		width = len(sum)
	}
	tail := sum[len(sum)-width:]
	out := make([]byte, width)
	copy(out, tail)
	return out, nil
}
