// Package challenge implements the per-(app, target) challenge record
// and its state machine.
package challenge

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// AppID identifies the application this challenge belongs to.
type AppID [8]byte

// Status is the challenge's phase.
type Status uint8

const (
	StatusFree Status = iota
	StatusExamine
	StatusReply
	StatusEvidence
	StatusArbitration
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "Free"
	case StatusExamine:
		return "Examine"
	case StatusReply:
		return "Reply"
	case StatusEvidence:
		return "Evidence"
	case StatusArbitration:
		return "Arbitration"
	default:
		return "Unknown"
	}
}

// Pool is the pooled collateral and earnings backing a challenge.
// Invariant: Staking+SubStaking+Earnings never overflows a 128-bit
// unsigned (see fees.MaxBalance128).
type Pool struct {
	Staking    uint256.Int
	SubStaking uint256.Int
	Earnings   uint256.Int
}

// poolRLP is Pool's on-the-wire shape: uint256.Int doesn't implement
// rlp.Encoder/Decoder itself, so storage round-trips go through
// *big.Int, same as go-ethereum's own big-integer fields.
type poolRLP struct {
	Staking    *big.Int
	SubStaking *big.Int
	Earnings   *big.Int
}

func (p Pool) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, poolRLP{
		Staking:    p.Staking.ToBig(),
		SubStaking: p.SubStaking.ToBig(),
		Earnings:   p.Earnings.ToBig(),
	})
}

func (p *Pool) DecodeRLP(s *rlp.Stream) error {
	var raw poolRLP
	if err := s.Decode(&raw); err != nil {
		return err
	}
	if raw.Staking != nil {
		p.Staking.SetFromBig(raw.Staking)
	}
	if raw.SubStaking != nil {
		p.SubStaking.SetFromBig(raw.SubStaking)
	}
	if raw.Earnings != nil {
		p.Earnings.SetFromBig(raw.Earnings)
	}
	return nil
}

// Progress tracks a bounded, resumable ("breakpoint") upload.
type Progress struct {
	Owner common.Address
	Total uint32
	Done  uint32
}

// Record is the per-(app, target) challenge record.
type Record struct {
	Pool          Pool
	Beneficiary   common.Address
	JointBenefits bool
	Progress      Progress
	LastUpdate    uint64
	Remark        uint32
	Score         uint64
	Pathfinder    common.Address
	Challenger    common.Address
	Status        Status
}

// Key identifies a record by (app_id, target_account).
type Key struct {
	AppID  AppID
	Target common.Address
}

// Bytes returns the composite storage key: app_id || target, so that
// an IterPrefix over just the AppID bytes enumerates every record
// under that app (used by IsAllHarvest).
func (k Key) Bytes() []byte {
	b := make([]byte, 0, len(k.AppID)+common.AddressLength)
	b = append(b, k.AppID[:]...)
	b = append(b, k.Target.Bytes()...)
	return b
}

// ResultHash is one cell of a commitment level: a bisected sub-range
// identified by order, carrying the summed score of its sub-paths and
// a hash of their contents.
type ResultHash struct {
	Order []byte
	Score uint64
	Hash  common.Hash
}

// OrderKey implements orderedset.Keyed.
func (r ResultHash) OrderKey() []byte { return r.Order }

// Path is a concrete shortest-path witness: a sequence of nodes and
// the count of shortest paths it stands for.
type Path struct {
	Nodes []common.Address
	Total uint32
}

// Ends returns the path's (start, stop) endpoints.
func (p Path) Ends() (common.Address, common.Address) {
	return p.Nodes[0], p.Nodes[len(p.Nodes)-1]
}

// MissedPath carries a challenger-claimed omitted path into
// arbitration, pending the arbitrator's decision.
type MissedPath struct {
	Nodes []common.Address
}

// SameEnds reports whether two node sequences share both endpoints.
func SameEnds(a, b []common.Address) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return a[0] == b[0] && a[len(a)-1] == b[len(b)-1]
}

// NodesEqual reports whether two node sequences are identical.
func NodesEqual(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
