package engine

import (
	"sync"

	"github.com/fomc-rates/treasury-gate/src/utils"
)

// AccountLedger is a notional pair of balances used in place of a venue.
type AccountLedger struct {
	A uint64
	B uint64
}

// NotionalLedger holds AccountLedgers keyed by account, created on first touch.
type NotionalLedger struct {
	mu       sync.RWMutex
	accounts map[Address]*AccountLedger
}

func NewNotionalLedger() *NotionalLedger {
	return &NotionalLedger{accounts: make(map[Address]*AccountLedger)}
}

func (n *NotionalLedger) Seed(account Address, a, b uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accounts[account] = &AccountLedger{A: a, B: b}
}

func (n *NotionalLedger) Get(account Address) AccountLedger {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if l, ok := n.accounts[account]; ok {
		return *l
	}
	return AccountLedger{}
}

// Accounts returns a copy of every account's balances.
func (n *NotionalLedger) Accounts() map[Address]AccountLedger {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[Address]AccountLedger, len(n.accounts))
	for k, v := range n.accounts {
		out[k] = *v
	}
	return out
}

func (n *NotionalLedger) GetA(account Address) uint64 {
	return n.Get(account).A
}

func (n *NotionalLedger) GetB(account Address) uint64 {
	return n.Get(account).B
}

// Apply moves floor(balance*percent/100) from A to B when aToB, otherwise
// from B to A, and returns the moved amount.
func (n *NotionalLedger) Apply(account Address, percent uint64, aToB bool) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.accounts[account]
	if !ok {
		l = &AccountLedger{}
		n.accounts[account] = l
	}
	src, dst := &l.B, &l.A
	if aToB {
		src, dst = &l.A, &l.B
	}
	amount := PercentOf(*src, percent)
	if amount == 0 {
		return 0
	}
	*src = utils.SafeSub(*src, amount)
	*dst = utils.SafeAdd(*dst, amount)
	return amount
}

func (n *NotionalLedger) Checkpoint() func() {
	n.mu.RLock()
	saved := make(map[Address]AccountLedger, len(n.accounts))
	for k, v := range n.accounts {
		saved[k] = *v
	}
	n.mu.RUnlock()
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.accounts = make(map[Address]*AccountLedger, len(saved))
		for k, v := range saved {
			v := v
			n.accounts[k] = &v
		}
	}
}
