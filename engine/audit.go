package engine

import (
	"errors"
	"sync"

	"github.com/fomc-rates/treasury-gate/src/utils"

	bsmt "github.com/bnb-chain/zkbnb-smt"
)

var ErrEventNotSealed = errors.New("event not sealed into the audit tree")

// AuditLedger is the append-only movement log. Sealed events are also
// committed to a sparse merkle tree keyed by sequence number so that any
// single event can be proven against the published root.
type AuditLedger struct {
	mu     sync.RWMutex
	events []MovementEvent
	tree   bsmt.SparseMerkleTree
	sealed int
}

// NewAuditLedger returns a ledger backed by tree. tree may be nil, in which
// case events are only kept in memory.
func NewAuditLedger(tree bsmt.SparseMerkleTree) *AuditLedger {
	return &AuditLedger{tree: tree}
}

func (l *AuditLedger) Emit(magnitude uint64, increase bool, timestamp uint64) MovementEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := MovementEvent{
		Seq:       uint64(len(l.events)),
		Magnitude: magnitude,
		Increase:  increase,
		Timestamp: timestamp,
	}
	l.events = append(l.events, ev)
	return ev
}

// Replay appends events archived by an earlier process and seals them.
// Their sequence numbers must continue the ledger. On failure the ledger
// is left as it was.
func (l *AuditLedger) Replay(events []MovementEvent) (root []byte, err error) {
	restore := l.Checkpoint()
	defer func() {
		if err != nil {
			restore()
		}
	}()

	l.mu.Lock()
	for _, ev := range events {
		if ev.Seq != uint64(len(l.events)) {
			l.mu.Unlock()
			return nil, utils.ErrEventSequence
		}
		l.events = append(l.events, ev)
	}
	l.mu.Unlock()
	return l.Seal()
}

func (l *AuditLedger) Events() []MovementEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]MovementEvent(nil), l.events...)
}

func (l *AuditLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

func (l *AuditLedger) Checkpoint() func() {
	l.mu.RLock()
	n, sealed := len(l.events), l.sealed
	var version bsmt.Version
	if l.tree != nil {
		version = l.tree.LatestVersion()
	}
	l.mu.RUnlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = l.events[:n]
		l.sealed = sealed
		if l.tree != nil && l.tree.LatestVersion() > version {
			//nolint:errcheck
			l.tree.Rollback(version)
		}
	}
}

// Seal commits every pending event to the tree and returns the new root.
func (l *AuditLedger) Seal() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tree == nil {
		l.sealed = len(l.events)
		return nil, nil
	}
	if l.sealed == len(l.events) {
		return l.tree.Root(), nil
	}
	for _, ev := range l.events[l.sealed:] {
		leaf := utils.EventLeafHash(ev.Seq, ev.Magnitude, ev.Increase, ev.Timestamp)
		if err := l.tree.Set(ev.Seq, leaf); err != nil {
			return nil, err
		}
	}
	// no pruning: Checkpoint may roll back to any earlier version
	if _, err := l.tree.Commit(nil); err != nil {
		return nil, err
	}
	l.sealed = len(l.events)
	return l.tree.Root(), nil
}

func (l *AuditLedger) Root() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.tree == nil {
		return nil
	}
	return l.tree.Root()
}

// Proof returns the leaf hash of event seq and its merkle path.
func (l *AuditLedger) Proof(seq uint64) (leaf []byte, proof [][]byte, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.tree == nil || seq >= uint64(l.sealed) {
		return nil, nil, ErrEventNotSealed
	}
	ev := l.events[seq]
	proof, err = l.tree.GetProof(seq)
	if err != nil {
		return nil, nil, err
	}
	return utils.EventLeafHash(ev.Seq, ev.Magnitude, ev.Increase, ev.Timestamp), proof, nil
}
