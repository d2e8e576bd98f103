// Package refreshseed drives a full refresh cycle: candidate
// publication, the sorted score list used to pick final seeds, and the
// glue between fingerprint/verify/challenge that a refresh cycle's
// handlers call into.
package refreshseed

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// AppID is the fixed application identifier this module's challenges
// are opened under (APP_ID in the original pallet).
var AppID = [8]byte{'r', 'e', 'f', 'r', 'e', 's', 'h', 0}

// Candidate is a pathfinder's current best score for a target account,
// pending challenge.
type Candidate struct {
	Score        uint64
	Pathfinder   common.Address
	HasChallenge bool
	AddAt        uint64
}

// ScoreList is the sorted vector of every live candidate's score, used
// at the end of a refresh cycle to keep only the top MaxSeedCount
// scores (hand_first_time).
type ScoreList struct {
	scores []uint64
}

// Insert inserts score into its sorted position (score_list_insert).
func (s *ScoreList) Insert(score uint64) {
	idx := sort.Search(len(s.scores), func(i int) bool { return s.scores[i] >= score })
	s.scores = append(s.scores, 0)
	copy(s.scores[idx+1:], s.scores[idx:])
	s.scores[idx] = score
}

// Remove deletes the first occurrence of score, if present
// (mutate_score's removal half).
func (s *ScoreList) Remove(score uint64) {
	idx := sort.Search(len(s.scores), func(i int) bool { return s.scores[i] >= score })
	if idx < len(s.scores) && s.scores[idx] == score {
		s.scores = append(s.scores[:idx], s.scores[idx+1:]...)
	}
}

// Len returns the number of scores currently tracked.
func (s *ScoreList) Len() int { return len(s.scores) }

// Scores returns the sorted backing slice. Callers must not mutate it.
func (s *ScoreList) Scores() []uint64 { return s.scores }

// TrimToSeedCount keeps only the top maxSeedCount scores
// (hand_first_time's truncation), discarding the rest.
func (s *ScoreList) TrimToSeedCount(maxSeedCount int) {
	if len(s.scores) > maxSeedCount {
		s.scores = s.scores[len(s.scores)-maxSeedCount:]
	}
}
