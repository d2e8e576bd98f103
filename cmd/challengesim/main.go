// Command challengesim drives a single scripted challenge game over
// an in-memory store and prints the resulting settlement. It exists
// to exercise Engine end to end without a live trust graph or
// chain; it is not a server, an RPC surface, or anything resembling
// the validator CLI this module's ambient stack is otherwise
// grounded on.
package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/zerodao-labs/challenges/challenge"
	"github.com/zerodao-labs/challenges/external"
	"github.com/zerodao-labs/challenges/store"
	"github.com/zerodao-labs/challenges/telemetry"
)

var log = logrus.WithField("cmd", "challengesim")

type memCurrency struct{ released map[common.Address]*uint256.Int }

func (c *memCurrency) Staking(ctx context.Context, who common.Address, amount external.Balance) error {
	return nil
}

func (c *memCurrency) Release(ctx context.Context, who common.Address, amount external.Balance) error {
	cur, ok := c.released[who]
	if !ok {
		cur = uint256.NewInt(0)
	}
	c.released[who] = new(uint256.Int).Add(cur, &amount)
	return nil
}

type staticReputation struct{}

func (staticReputation) IsStep(ctx context.Context, step external.TIRStep) (bool, error) {
	return step == external.StepSeed, nil
}
func (staticReputation) LastChallengeAt(ctx context.Context) error            { return nil }
func (staticReputation) GetLastRefreshAt(ctx context.Context) (uint64, error) { return 0, nil }

func main() {
	var (
		score           uint64
		earnings        uint64
		challengePeriod uint64
		now             uint64
	)
	flag.Uint64Var(&score, "score", 42, "candidate score the pathfinder publishes")
	flag.Uint64Var(&earnings, "earnings", 1000, "pool earnings accrued for the target")
	flag.Uint64Var(&challengePeriod, "challenge-period", 100, "blocks the challenge period spans")
	flag.Uint64Var(&now, "now", 0, "block number to harvest at (defaults to challenge-period+1)")
	flag.Parse()

	if now == 0 {
		now = challengePeriod + 1
	}

	backend := store.NewMemStore()
	currency := &memCurrency{released: map[common.Address]*uint256.Int{}}
	engine := challenge.NewEngine(backend, currency, staticReputation{}, challengePeriod, *uint256.NewInt(0), nil)
	engine.SetMetrics(telemetry.NewMetrics(nil))

	ctx := context.Background()
	target := common.HexToAddress("0x1")
	pathfinder := common.HexToAddress("0x2")

	if err := engine.New(ctx, challenge.AppID{}, pathfinder, pathfinder, uint256.NewInt(earnings), uint256.NewInt(0), target, 0, score, now-challengePeriod); err != nil {
		log.WithError(err).Fatal("opening challenge")
	}

	settledScore, err := engine.Harvest(ctx, challenge.AppID{}, pathfinder, false, target, now)
	if err != nil {
		log.WithError(err).Fatal("harvesting challenge")
	}

	fmt.Printf("pathfinder %s released: %s\n", pathfinder, currency.released[pathfinder])
	if settledScore != nil {
		fmt.Printf("settled score: %d\n", *settledScore)
	}
}
