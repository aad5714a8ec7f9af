// Package venue is an in-process AMM router with uncorrelated (constant
// product) pools and per-account coin stores.
package venue

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/fomc-rates/treasury-gate/engine"
	"github.com/fomc-rates/treasury-gate/src/utils"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	DefaultFeeBps uint64 = 30
	FeeScale      uint64 = 10000
)

var (
	ErrPoolNotFound        = engine.ErrPoolNotFound
	ErrPoolExists          = errors.New("pool already exists")
	ErrNotRegistered       = errors.New("account not registered for asset")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientOutput  = errors.New("output below minimum")
	ErrZeroAmount          = errors.New("zero amount")
	ErrUnsupportedCurve    = errors.New("unsupported curve")
)

type PoolConfig struct {
	X        engine.Asset
	Y        engine.Asset
	Curve    engine.Curve
	ReserveX uint64
	ReserveY uint64
	FeeBps   uint64
}

type poolKey struct {
	x, y  engine.Asset
	curve engine.Curve
}

func newPoolKey(a, b engine.Asset, curve engine.Curve) poolKey {
	if b < a {
		a, b = b, a
	}
	return poolKey{x: a, y: b, curve: curve}
}

type pool struct {
	reserves map[engine.Asset]uint64
	feeBps   uint64
}

type storeKey struct {
	account engine.Address
	asset   engine.Asset
}

// Router implements engine.Venue.
type Router struct {
	mu     sync.RWMutex
	pools  map[poolKey]*pool
	stores map[storeKey]uint64
}

func NewRouter() *Router {
	return &Router{
		pools:  make(map[poolKey]*pool),
		stores: make(map[storeKey]uint64),
	}
}

func (r *Router) CreatePool(c PoolConfig) error {
	if c.Curve == "" {
		c.Curve = engine.CurveUncorrelated
	}
	if c.Curve != engine.CurveUncorrelated {
		return ErrUnsupportedCurve
	}
	if c.X == c.Y {
		return fmt.Errorf("pool %s/%s: identical assets", c.X, c.Y)
	}
	if c.FeeBps == 0 {
		c.FeeBps = DefaultFeeBps
	}
	if c.FeeBps >= FeeScale {
		return fmt.Errorf("pool %s/%s: fee %d bps too high", c.X, c.Y, c.FeeBps)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := newPoolKey(c.X, c.Y, c.Curve)
	if _, ok := r.pools[key]; ok {
		return ErrPoolExists
	}
	r.pools[key] = &pool{
		reserves: map[engine.Asset]uint64{c.X: c.ReserveX, c.Y: c.ReserveY},
		feeBps:   c.FeeBps,
	}
	logx.Infof("pool %s/%s created, reserves %d/%d, fee %d bps", c.X, c.Y, c.ReserveX, c.ReserveY, c.FeeBps)
	return nil
}

// Reserves returns the pool reserves in the order the assets are given.
func (r *Router) Reserves(x, y engine.Asset, curve engine.Curve) (uint64, uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[newPoolKey(x, y, curve)]
	if !ok {
		return 0, 0, ErrPoolNotFound
	}
	return p.reserves[x], p.reserves[y], nil
}

// Mint credits amount of asset to a registered account.
func (r *Router) Mint(account engine.Address, asset engine.Asset, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := storeKey{account, asset}
	bal, ok := r.stores[key]
	if !ok {
		return ErrNotRegistered
	}
	r.stores[key] = utils.SafeAdd(bal, amount)
	return nil
}

func (r *Router) PoolExists(x, y engine.Asset, curve engine.Curve) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pools[newPoolKey(x, y, curve)]
	return ok
}

func (r *Router) IsRegistered(account engine.Address, asset engine.Asset) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stores[storeKey{account, asset}]
	return ok
}

// Register opens a zero balance store. Registering twice is a no-op.
func (r *Router) Register(account engine.Address, asset engine.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := storeKey{account, asset}
	if _, ok := r.stores[key]; !ok {
		r.stores[key] = 0
	}
	return nil
}

func (r *Router) Balance(account engine.Address, asset engine.Asset) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stores[storeKey{account, asset}]
}

func (r *Router) Withdraw(account engine.Address, asset engine.Asset, amount uint64) (engine.Coin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := storeKey{account, asset}
	bal, ok := r.stores[key]
	if !ok {
		return engine.Coin{}, ErrNotRegistered
	}
	if bal < amount {
		return engine.Coin{}, ErrInsufficientBalance
	}
	r.stores[key] = bal - amount
	return engine.Coin{Asset: asset, Value: amount}, nil
}

func (r *Router) Deposit(account engine.Address, coin engine.Coin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := storeKey{account, coin.Asset}
	bal, ok := r.stores[key]
	if !ok {
		return ErrNotRegistered
	}
	r.stores[key] = utils.SafeAdd(bal, coin.Value)
	return nil
}

// AmountOut is the constant product output for amountIn after the fee.
func AmountOut(amountIn, reserveIn, reserveOut, feeBps uint64) uint64 {
	inWithFee := new(big.Int).SetUint64(amountIn)
	inWithFee.Mul(inWithFee, new(big.Int).SetUint64(FeeScale-feeBps))
	num := new(big.Int).Mul(inWithFee, new(big.Int).SetUint64(reserveOut))
	den := new(big.Int).SetUint64(reserveIn)
	den.Mul(den, new(big.Int).SetUint64(FeeScale))
	den.Add(den, inWithFee)
	if den.Sign() == 0 {
		return 0
	}
	return num.Div(num, den).Uint64()
}

// SwapExactIn trades the whole of coin for asset to. The input coin is
// consumed only when the swap succeeds.
func (r *Router) SwapExactIn(coin engine.Coin, to engine.Asset, curve engine.Curve, minOut uint64) (engine.Coin, error) {
	if coin.Value == 0 {
		return engine.Coin{}, ErrZeroAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[newPoolKey(coin.Asset, to, curve)]
	if !ok {
		return engine.Coin{}, ErrPoolNotFound
	}
	reserveIn, reserveOut := p.reserves[coin.Asset], p.reserves[to]
	out := AmountOut(coin.Value, reserveIn, reserveOut, p.feeBps)
	if out < minOut || out == 0 {
		return engine.Coin{}, fmt.Errorf("%w: got %d, want at least %d", ErrInsufficientOutput, out, minOut)
	}
	p.reserves[coin.Asset] = utils.SafeAdd(reserveIn, coin.Value)
	p.reserves[to] = reserveOut - out
	return engine.Coin{Asset: to, Value: out}, nil
}

// StoreBalance is one account's holding of one asset.
type StoreBalance struct {
	Account engine.Address
	Asset   engine.Asset
	Amount  uint64
}

// Pools lists every pool with its current reserves, sorted by key.
func (r *Router) Pools() []PoolConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pools := make([]PoolConfig, 0, len(r.pools))
	for k, p := range r.pools {
		pools = append(pools, PoolConfig{
			X:        k.x,
			Y:        k.y,
			Curve:    k.curve,
			ReserveX: p.reserves[k.x],
			ReserveY: p.reserves[k.y],
			FeeBps:   p.feeBps,
		})
	}
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].X != pools[j].X {
			return pools[i].X < pools[j].X
		}
		if pools[i].Y != pools[j].Y {
			return pools[i].Y < pools[j].Y
		}
		return pools[i].Curve < pools[j].Curve
	})
	return pools
}

// Balances lists every registered store, sorted by account then asset.
func (r *Router) Balances() []StoreBalance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balances := make([]StoreBalance, 0, len(r.stores))
	for k, v := range r.stores {
		balances = append(balances, StoreBalance{Account: k.account, Asset: k.asset, Amount: v})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Account != balances[j].Account {
			return balances[i].Account < balances[j].Account
		}
		return balances[i].Asset < balances[j].Asset
	})
	return balances
}

// SetBalance registers account for asset if needed and overwrites its balance.
func (r *Router) SetBalance(account engine.Address, asset engine.Asset, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[storeKey{account, asset}] = amount
}

// Checkpoint snapshots pools and stores.
func (r *Router) Checkpoint() func() {
	r.mu.RLock()
	pools := make(map[poolKey]pool, len(r.pools))
	for k, p := range r.pools {
		reserves := make(map[engine.Asset]uint64, len(p.reserves))
		for a, v := range p.reserves {
			reserves[a] = v
		}
		pools[k] = pool{reserves: reserves, feeBps: p.feeBps}
	}
	stores := make(map[storeKey]uint64, len(r.stores))
	for k, v := range r.stores {
		stores[k] = v
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pools = make(map[poolKey]*pool, len(pools))
		for k, p := range pools {
			p := p
			r.pools[k] = &p
		}
		r.stores = stores
	}
}
