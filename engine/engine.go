package engine

import (
	"fmt"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

type Config struct {
	// Admin is the only address allowed to set the authority key.
	Admin Address
	Pair  AssetPair
}

type Option func(*Engine)

func WithVenue(v Venue) Option {
	return func(e *Engine) {
		e.venue = v
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

func WithAuditLedger(l *AuditLedger) Option {
	return func(e *Engine) {
		e.audit = l
	}
}

func WithNotionalLedger(l *NotionalLedger) Option {
	return func(e *Engine) {
		e.notional = l
	}
}

// Engine accepts attested rate movements and rebalances the treasury.
// Calls are serialised; a failed call leaves no visible mutation.
type Engine struct {
	mu sync.Mutex

	pair      AssetPair
	authority *AuthorityStore
	verifier  Verifier
	venue     Venue
	audit     *AuditLedger
	notional  *NotionalLedger
	clock     Clock
}

func NewEngine(config Config, verifier Verifier, opts ...Option) *Engine {
	e := &Engine{
		pair:      config.Pair,
		authority: NewAuthorityStore(config.Admin),
		verifier:  verifier,
		clock:     SystemClock{},
	}
	if e.pair.Curve == "" {
		e.pair.Curve = CurveUncorrelated
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.audit == nil {
		e.audit = NewAuditLedger(nil)
	}
	if e.notional == nil {
		e.notional = NewNotionalLedger()
	}
	return e
}

func (e *Engine) Pair() AssetPair                 { return e.pair }
func (e *Engine) Authority() *AuthorityStore      { return e.authority }
func (e *Engine) AuditLedger() *AuditLedger       { return e.audit }
func (e *Engine) NotionalLedger() *NotionalLedger { return e.notional }

func (e *Engine) SetKey(caller Address, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authority.SetKey(caller, key); err != nil {
		logx.Errorf("set key by %s rejected: %s", caller, err.Error())
		return err
	}
	logx.Infof("authority key set by %s, %d bytes", caller, len(key))
	return nil
}

func (e *Engine) HasKey() bool {
	return e.authority.HasKey()
}

func (e *Engine) KeyLen() uint64 {
	return e.authority.KeyLen()
}

// RecordMovement verifies the attested claim and rebalances the caller's
// venue account according to Decide.
func (e *Engine) RecordMovement(caller Address, magnitude uint64, increase bool, signature []byte) (Receipt, error) {
	return e.record(caller, RateMovementClaim{Magnitude: magnitude, Increase: increase}, signature, func(ins Instruction) (Fill, error) {
		if e.venue == nil {
			return Fill{}, ErrPoolNotFound
		}
		adapter := NewVenueAdapter(e.venue, e.pair.Curve)
		return adapter.Rebalance(caller, e.pair.Asset(ins.From), e.pair.Asset(ins.To), ins.Percent)
	})
}

// RecordNotionalMovement is RecordMovement against the notional ledger.
func (e *Engine) RecordNotionalMovement(caller Address, magnitude uint64, increase bool, signature []byte) (Receipt, error) {
	return e.record(caller, RateMovementClaim{Magnitude: magnitude, Increase: increase}, signature, func(ins Instruction) (Fill, error) {
		moved := e.notional.Apply(caller, ins.Percent, ins.From == SideA)
		return Fill{
			From:      e.pair.Asset(ins.From),
			To:        e.pair.Asset(ins.To),
			AmountIn:  moved,
			AmountOut: moved,
		}, nil
	})
}

func (e *Engine) participants() []Checkpointer {
	ps := []Checkpointer{e.authority, e.audit, e.notional}
	if cp, ok := e.venue.(Checkpointer); ok {
		ps = append(ps, cp)
	}
	return ps
}

func (e *Engine) record(caller Address, claim RateMovementClaim, signature []byte, execute func(Instruction) (Fill, error)) (Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var receipt Receipt
	err := runAtomically(e.participants(), func() error {
		cfg, ok := e.authority.Load()
		if !ok {
			return ErrInvalidAuthorityKey
		}
		if err := AssertAuthorized(e.verifier, claim.Message(), signature, cfg); err != nil {
			return err
		}

		receipt.Event = e.audit.Emit(claim.Magnitude, claim.Increase, e.clock.NowMicros())
		receipt.Instruction = Decide(claim.Magnitude, claim.Increase)

		fill, err := execute(receipt.Instruction)
		if err != nil {
			return err
		}
		receipt.Fill = fill

		if _, err = e.audit.Seal(); err != nil {
			return fmt.Errorf("seal audit event %d: %w", receipt.Event.Seq, err)
		}
		return nil
	})
	if err != nil {
		logx.Errorf("movement %s from %s aborted: %s", claim, caller, err.Error())
		return Receipt{}, err
	}

	logx.Infow("movement accepted",
		logx.Field("seq", receipt.Event.Seq),
		logx.Field("claim", claim.String()),
		logx.Field("account", string(caller)),
		logx.Field("decision", receipt.Instruction.Describe(e.pair)),
		logx.Field("amount_in", receipt.Fill.AmountIn),
		logx.Field("amount_out", receipt.Fill.AmountOut),
	)
	return receipt, nil
}

// Deprecated: claims must be attested. Always returns ErrDisabled.
func (e *Engine) RecordMovementUnsigned(caller Address, magnitude uint64, increase bool) error {
	return ErrDisabled
}

// Deprecated: the key is read from the authority config. Always returns ErrDisabled.
func (e *Engine) RecordMovementWithKey(caller Address, magnitude uint64, increase bool, message, signature, publicKey []byte) error {
	return ErrDisabled
}

// Deprecated: verification is part of RecordMovement. Always returns ErrDisabled.
func (e *Engine) VerifyAttestation(message, signature, publicKey []byte) (bool, error) {
	return false, ErrDisabled
}

// Dispatch routes a decoded entrypoint call. Only live entry versions
// execute; every retired version fails with ErrDisabled.
func (e *Engine) Dispatch(call EntryCall) (Receipt, error) {
	if call == nil || !call.Version().Live() {
		return Receipt{}, ErrDisabled
	}
	switch call.Version() {
	case EntryAttested:
		c, ok := call.(MovementCall)
		if !ok {
			return Receipt{}, ErrDisabled
		}
		if c.Notional {
			return e.RecordNotionalMovement(c.Caller, c.Magnitude, c.Increase, c.Signature)
		}
		return e.RecordMovement(c.Caller, c.Magnitude, c.Increase, c.Signature)
	default:
		return Receipt{}, ErrDisabled
	}
}
