package engine

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
)

// MinAmountOut is the swap output floor. It only rejects a total-loss trade.
const MinAmountOut uint64 = 1

// Venue is the AMM router the treasury trades through.
type Venue interface {
	PoolExists(x, y Asset, curve Curve) bool
	IsRegistered(account Address, asset Asset) bool
	Register(account Address, asset Asset) error
	Balance(account Address, asset Asset) uint64
	Withdraw(account Address, asset Asset, amount uint64) (Coin, error)
	Deposit(account Address, coin Coin) error
	SwapExactIn(coin Coin, to Asset, curve Curve, minOut uint64) (Coin, error)
}

type VenueAdapter struct {
	venue Venue
	curve Curve
}

func NewVenueAdapter(v Venue, curve Curve) *VenueAdapter {
	if curve == "" {
		curve = CurveUncorrelated
	}
	return &VenueAdapter{venue: v, curve: curve}
}

// EnsureRegistered registers account for each asset it is not yet registered for.
func (a *VenueAdapter) EnsureRegistered(account Address, assets ...Asset) error {
	for _, asset := range assets {
		if a.venue.IsRegistered(account, asset) {
			continue
		}
		if err := a.venue.Register(account, asset); err != nil {
			return fmt.Errorf("register %s for %s: %w", asset, account, err)
		}
	}
	return nil
}

// Rebalance swaps percent of the account's from balance into to. A zero
// sized move returns an empty Fill and no error. When the swap fails the
// withdrawn coin is deposited back before the error is returned.
func (a *VenueAdapter) Rebalance(account Address, from, to Asset, percent uint64) (Fill, error) {
	fill := Fill{From: from, To: to}
	if err := a.EnsureRegistered(account, from, to); err != nil {
		return fill, err
	}
	if !a.venue.PoolExists(from, to, a.curve) {
		return fill, ErrPoolNotFound
	}

	amountIn := PercentOf(a.venue.Balance(account, from), percent)
	if amountIn == 0 {
		logx.Infof("rebalance %s: zero amount of %s, nothing to move", account, from)
		return fill, nil
	}

	coinIn, err := a.venue.Withdraw(account, from, amountIn)
	if err != nil {
		return fill, fmt.Errorf("withdraw %d %s: %w", amountIn, from, err)
	}
	coinOut, err := a.venue.SwapExactIn(coinIn, to, a.curve, MinAmountOut)
	if err != nil {
		if rerr := a.venue.Deposit(account, coinIn); rerr != nil {
			logx.Errorf("rebalance %s: return of %d %s failed: %s", account, coinIn.Value, from, rerr.Error())
		}
		return fill, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}
	if err = a.venue.Deposit(account, coinOut); err != nil {
		return fill, fmt.Errorf("deposit %d %s: %w", coinOut.Value, to, err)
	}

	fill.AmountIn = coinIn.Value
	fill.AmountOut = coinOut.Value
	return fill, nil
}
