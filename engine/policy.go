package engine

import (
	"fmt"

	"github.com/fomc-rates/treasury-gate/src/utils"
)

const (
	// LargeCutBps and SmallCutBps are the decrease thresholds, inclusive.
	LargeCutBps uint64 = 50
	SmallCutBps uint64 = 25

	LargeCutPercent uint64 = 30
	SmallCutPercent uint64 = 10
	HoldPercent     uint64 = 30
)

// Decide maps a rate movement to a rebalancing instruction. First match wins.
func Decide(magnitude uint64, increase bool) Instruction {
	switch {
	case !increase && magnitude >= LargeCutBps:
		return Instruction{From: SideA, To: SideB, Percent: LargeCutPercent}
	case !increase && magnitude >= SmallCutBps:
		return Instruction{From: SideA, To: SideB, Percent: SmallCutPercent}
	default:
		return Instruction{From: SideB, To: SideA, Percent: HoldPercent}
	}
}

// PercentOf returns floor(balance*percent/100). percent is capped at 100.
func PercentOf(balance uint64, percent uint64) uint64 {
	if percent > 100 {
		percent = 100
	}
	return utils.PercentOfBalance(balance, percent)
}

// Describe renders the instruction the way operators read it in logs.
func (i Instruction) Describe(pair AssetPair) string {
	return fmt.Sprintf("swap %d%% of %s (%s) to %s (%s)",
		i.Percent, pair.Asset(i.From), i.From, pair.Asset(i.To), i.To)
}
