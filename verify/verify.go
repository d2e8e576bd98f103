// Package verify checks the score-conservation and path-validity
// invariants a commitment level and its leaf paths must satisfy.
package verify

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/zerodao-labs/challenges/challenge"
	"github.com/zerodao-labs/challenges/external"
	"github.com/zerodao-labs/challenges/fingerprint"
	"github.com/zerodao-labs/challenges/orderedset"
)

var (
	ErrScoreMismatch = errors.New("child scores do not sum to parent score")
	ErrFingerprint   = errors.New("fingerprint does not match order")
	ErrPathTooShort  = errors.New("path has fewer than two nodes")
	ErrPathTooLong   = errors.New("path exceeds maximum length")
	ErrScoreRange    = errors.New("path score out of range")
	ErrNoTargetNode  = errors.New("target node missing from path")
	ErrBracketGap    = errors.New("bracket is not adjacent")
)

// maxPathLength bounds a leaf path's node count.
const maxPathLength = 64

// ResultHashes checks that every cell's Order correctly fingerprints
// its (start, stop) claim at depth, and that sibling cells at the
// same parent order sum to the parent's carried score. Called once
// per commitment level a pathfinder publishes via Reply.
func ResultHashes(cells []challenge.ResultHash, start, stop common.Address, depth int, parentScore uint64) error {
	expected, err := fingerprint.MakeFullOrder(start, stop, depth)
	if err != nil {
		return err
	}

	var sum uint64
	for _, c := range cells {
		if !orderedset.FullOrder(c.Order).Equal(expected.Prefix(depth)) {
			return ErrFingerprint
		}
		sum += c.Score
	}
	if sum != parentScore {
		return ErrScoreMismatch
	}
	return nil
}

// Path checks a leaf-level shortest-path witness against the trust
// graph and the score range invariant: at least two nodes, at most
// maxPathLength, a score of at least 1 and below 100, and the target node present
// somewhere in the path.
func Path(ctx context.Context, graph external.TrustGraph, p challenge.Path, target common.Address, score uint32) error {
	if len(p.Nodes) < 2 {
		return ErrPathTooShort
	}
	if len(p.Nodes) > maxPathLength {
		return ErrPathTooLong
	}
	if score < 1 || score >= 100 {
		return ErrScoreRange
	}
	found := false
	for _, n := range p.Nodes {
		if n == target {
			found = true
			break
		}
	}
	if !found {
		return ErrNoTargetNode
	}
	return graph.ValidNodes(ctx, p.Nodes)
}

// Contribution computes a path's percentage-of-total score
// contribution as 100/total, the per-path-count weighting used when
// summing a result hash's score from its member paths.
func Contribution(total uint32) uint32 {
	if total == 0 {
		return 0
	}
	return 100 / total
}

// Omission checks a challenger's claim that the pathfinder's
// published level omits a path with the given endpoints: below and
// above must bracket the fingerprint of (start, stop) at depth, i.e.
// be adjacent cells in the level with no cell in between for that
// key.
func Omission(level *orderedset.Set[challenge.ResultHash], start, stop common.Address, depth int, below, above *challenge.ResultHash) error {
	key, err := fingerprint.MakeFullOrder(start, stop, depth)
	if err != nil {
		return err
	}
	gotBelow, gotAbove := level.Neighbors(key)
	if gotAbove != nil && orderedset.FullOrder(gotAbove.Order).Equal(key) {
		return ErrBracketGap
	}
	if !sameResultHash(gotBelow, below) || !sameResultHash(gotAbove, above) {
		return ErrBracketGap
	}
	return nil
}

func sameResultHash(a, b *challenge.ResultHash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return orderedset.FullOrder(a.Order).Equal(orderedset.FullOrder(b.Order)) && a.Score == b.Score && a.Hash == b.Hash
}
