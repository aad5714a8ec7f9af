package engine

import "fmt"

type (
	// Address identifies a caller or a treasury account.
	Address string
	// Asset is a venue coin type, e.g. "0x1::supra_coin::SupraCoin".
	Asset string
	// Curve selects the pool family on the venue.
	Curve string
)

const CurveUncorrelated Curve = "uncorrelated"

// AssetPair is the deploy-time pair the engine rebalances between.
type AssetPair struct {
	A     Asset
	B     Asset
	Curve Curve
}

func (p AssetPair) Asset(s Side) Asset {
	if s == SideA {
		return p.A
	}
	return p.B
}

// RateMovementClaim is a claimed rate change in basis points.
type RateMovementClaim struct {
	Magnitude uint64
	Increase  bool
}

func (c RateMovementClaim) String() string {
	if c.Increase {
		return fmt.Sprintf("+%dbps", c.Magnitude)
	}
	return fmt.Sprintf("-%dbps", c.Magnitude)
}

// MovementEvent is the audit record of one accepted claim.
type MovementEvent struct {
	Seq       uint64
	Magnitude uint64
	Increase  bool
	// Timestamp is in microseconds.
	Timestamp uint64
}

type Coin struct {
	Asset Asset
	Value uint64
}

type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

// Instruction moves Percent of the From balance into To.
type Instruction struct {
	From    Side
	To      Side
	Percent uint64
}

// Fill reports what a rebalance actually moved. A zero AmountIn means no-op.
type Fill struct {
	From      Asset
	To        Asset
	AmountIn  uint64
	AmountOut uint64
}

type Receipt struct {
	Event       MovementEvent
	Instruction Instruction
	Fill        Fill
}
