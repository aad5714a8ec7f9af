package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fomc-rates/treasury-gate/bls"
	"github.com/fomc-rates/treasury-gate/src/utils"
)

const (
	testAdmin   Address = "0xadmin"
	testAccount Address = "0xtreasury"
)

var testPair = AssetPair{A: "0x1::supra_coin::SupraCoin", B: "0xbridge::usdt::USDT"}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *bls.SecretKey) {
	t.Helper()
	sk, err := bls.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(Config{Admin: testAdmin, Pair: testPair}, bls.Scheme{}, opts...)
	return e, sk
}

func sign(t *testing.T, sk *bls.SecretKey, magnitude uint64, increase bool) []byte {
	t.Helper()
	sig, err := sk.Sign(EncodeMovement(magnitude, increase))
	if err != nil {
		t.Fatal(err)
	}
	return sig
}

func TestNotionalScenarios(t *testing.T) {
	cases := []struct {
		name      string
		seedA     uint64
		seedB     uint64
		magnitude uint64
		increase  bool
		wantA     uint64
		wantB     uint64
	}{
		{"small cut", 1000, 0, 25, false, 900, 100},
		{"large cut", 1000, 0, 50, false, 700, 300},
		{"no change", 0, 1000, 0, false, 300, 700},
		{"hike", 0, 1000, 25, true, 300, 700},
		{"dust is a no-op", 3, 3, 25, false, 3, 3},
	}
	for _, c := range cases {
		e, sk := newTestEngine(t, WithClock(NewFixedClock(42)))
		if err := e.SetKey(testAdmin, sk.PublicKey()); err != nil {
			t.Fatal(err)
		}
		e.NotionalLedger().Seed(testAccount, c.seedA, c.seedB)

		receipt, err := e.RecordNotionalMovement(testAccount, c.magnitude, c.increase, sign(t, sk, c.magnitude, c.increase))
		if err != nil {
			t.Fatalf("%s: %s", c.name, err.Error())
		}
		ledger := e.NotionalLedger()
		if ledger.GetA(testAccount) != c.wantA || ledger.GetB(testAccount) != c.wantB {
			t.Errorf("%s: got {%d, %d}, want {%d, %d}", c.name,
				ledger.GetA(testAccount), ledger.GetB(testAccount), c.wantA, c.wantB)
		}
		if receipt.Event.Timestamp != 42 || receipt.Event.Magnitude != c.magnitude {
			t.Errorf("%s: unexpected event %+v", c.name, receipt.Event)
		}
		if e.AuditLedger().Len() != 1 {
			t.Errorf("%s: expected exactly one event, got %d", c.name, e.AuditLedger().Len())
		}
	}
}

func TestNoAuthorityKey(t *testing.T) {
	e, sk := newTestEngine(t)
	e.NotionalLedger().Seed(testAccount, 1000, 0)

	_, err := e.RecordNotionalMovement(testAccount, 25, false, sign(t, sk, 25, false))
	if !errors.Is(err, ErrInvalidAuthorityKey) {
		t.Fatalf("got %v", err)
	}
	if AbortCodeOf(err) != AbortInvalidAuthorityKey {
		t.Errorf("abort code %s", AbortCodeOf(err))
	}
	if e.NotionalLedger().GetA(testAccount) != 1000 || e.NotionalLedger().GetB(testAccount) != 0 {
		t.Errorf("ledger mutated")
	}
	if e.AuditLedger().Len() != 0 {
		t.Errorf("event emitted")
	}
}

func TestMalformedAuthorityKey(t *testing.T) {
	e, sk := newTestEngine(t)
	if err := e.SetKey(testAdmin, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	_, err := e.RecordNotionalMovement(testAccount, 25, false, sign(t, sk, 25, false))
	if !errors.Is(err, ErrInvalidAuthorityKey) {
		t.Errorf("got %v", err)
	}
}

func TestTamperedClaim(t *testing.T) {
	e, sk := newTestEngine(t)
	if err := e.SetKey(testAdmin, sk.PublicKey()); err != nil {
		t.Fatal(err)
	}
	e.NotionalLedger().Seed(testAccount, 1000, 0)
	sig := sign(t, sk, 25, false)

	for _, c := range []struct {
		magnitude uint64
		increase  bool
	}{{50, false}, {25, true}, {24, false}} {
		_, err := e.RecordNotionalMovement(testAccount, c.magnitude, c.increase, sig)
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("claim (%d, %v): got %v", c.magnitude, c.increase, err)
		}
	}

	other, _ := bls.GenerateKey()
	if _, err := e.RecordNotionalMovement(testAccount, 25, false, sign(t, other, 25, false)); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("foreign signer: got %v", err)
	}
	if e.NotionalLedger().GetA(testAccount) != 1000 || e.AuditLedger().Len() != 0 {
		t.Errorf("rejected claims mutated state")
	}
}

func TestAdminGating(t *testing.T) {
	e, sk := newTestEngine(t)
	if e.HasKey() || e.KeyLen() != 0 {
		t.Fatalf("fresh engine has a key")
	}
	if err := e.SetKey("0xmallory", sk.PublicKey()); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("got %v", err)
	}
	if e.HasKey() {
		t.Fatalf("non admin installed a key")
	}

	if err := e.SetKey(testAdmin, sk.PublicKey()); err != nil {
		t.Fatal(err)
	}
	if !e.HasKey() || e.KeyLen() != 48 {
		t.Errorf("key not stored, len %d", e.KeyLen())
	}
	rotated, _ := bls.GenerateKey()
	if err := e.SetKey("0xmallory", rotated.PublicKey()); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("got %v", err)
	}
	cfg, _ := e.Authority().Load()
	if !bytes.Equal(cfg.VerificationKey, sk.PublicKey()) {
		t.Errorf("stored key changed by non admin")
	}

	// rotation is destructive: the old key stops working immediately
	if err := e.SetKey(testAdmin, rotated.PublicKey()); err != nil {
		t.Fatal(err)
	}
	e.NotionalLedger().Seed(testAccount, 1000, 0)
	if _, err := e.RecordNotionalMovement(testAccount, 25, false, sign(t, sk, 25, false)); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("old key still accepted: %v", err)
	}
	if _, err := e.RecordNotionalMovement(testAccount, 25, false, sign(t, rotated, 25, false)); err != nil {
		t.Errorf("new key rejected: %v", err)
	}
}

type fakeVenue struct {
	pools    map[[2]Asset]bool
	stores   map[Address]map[Asset]uint64
	failSwap bool
	swaps    int
	regs     int
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		pools:  make(map[[2]Asset]bool),
		stores: make(map[Address]map[Asset]uint64),
	}
}

func (f *fakeVenue) PoolExists(x, y Asset, curve Curve) bool {
	return f.pools[[2]Asset{x, y}] || f.pools[[2]Asset{y, x}]
}

func (f *fakeVenue) IsRegistered(account Address, asset Asset) bool {
	_, ok := f.stores[account][asset]
	return ok
}

func (f *fakeVenue) Register(account Address, asset Asset) error {
	if f.stores[account] == nil {
		f.stores[account] = make(map[Asset]uint64)
	}
	f.stores[account][asset] = 0
	f.regs++
	return nil
}

func (f *fakeVenue) Balance(account Address, asset Asset) uint64 {
	return f.stores[account][asset]
}

func (f *fakeVenue) Withdraw(account Address, asset Asset, amount uint64) (Coin, error) {
	if f.stores[account][asset] < amount {
		return Coin{}, errors.New("insufficient")
	}
	f.stores[account][asset] -= amount
	return Coin{Asset: asset, Value: amount}, nil
}

func (f *fakeVenue) Deposit(account Address, coin Coin) error {
	f.stores[account][coin.Asset] += coin.Value
	return nil
}

// SwapExactIn trades at 2:1.
func (f *fakeVenue) SwapExactIn(coin Coin, to Asset, curve Curve, minOut uint64) (Coin, error) {
	f.swaps++
	if f.failSwap || coin.Value/2 < minOut {
		return Coin{}, errors.New("pool drained")
	}
	return Coin{Asset: to, Value: coin.Value / 2}, nil
}

func TestVenueAdapterRebalance(t *testing.T) {
	v := newFakeVenue()
	v.pools[[2]Asset{testPair.A, testPair.B}] = true
	adapter := NewVenueAdapter(v, "")

	fill, err := adapter.Rebalance(testAccount, testPair.A, testPair.B, 10)
	if err != nil {
		t.Fatal(err)
	}
	if fill.AmountIn != 0 || v.swaps != 0 {
		t.Errorf("empty balance should be a no-op, got %+v", fill)
	}
	if v.regs != 2 {
		t.Fatalf("expected two registrations, got %d", v.regs)
	}

	v.stores[testAccount][testPair.A] = 1000
	fill, err = adapter.Rebalance(testAccount, testPair.A, testPair.B, 10)
	if err != nil {
		t.Fatal(err)
	}
	if fill.AmountIn != 100 || fill.AmountOut != 50 {
		t.Errorf("unexpected fill %+v", fill)
	}
	if v.regs != 2 {
		t.Errorf("registration repeated: %d", v.regs)
	}
	if v.Balance(testAccount, testPair.A) != 900 || v.Balance(testAccount, testPair.B) != 50 {
		t.Errorf("unexpected balances")
	}

	v.failSwap = true
	_, err = adapter.Rebalance(testAccount, testPair.A, testPair.B, 10)
	if !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("got %v", err)
	}
	if v.Balance(testAccount, testPair.A) != 900 {
		t.Errorf("withdrawal not compensated: %d", v.Balance(testAccount, testPair.A))
	}
}

func TestVenueAdapterPoolNotFound(t *testing.T) {
	v := newFakeVenue()
	adapter := NewVenueAdapter(v, CurveUncorrelated)
	_, err := adapter.Rebalance(testAccount, testPair.A, testPair.B, 30)
	if !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestRecordMovementVenuePath(t *testing.T) {
	v := newFakeVenue()
	v.pools[[2]Asset{testPair.A, testPair.B}] = true
	e, sk := newTestEngine(t, WithVenue(v))
	if err := e.SetKey(testAdmin, sk.PublicKey()); err != nil {
		t.Fatal(err)
	}
	v.Register(testAccount, testPair.A)
	v.stores[testAccount][testPair.A] = 1000

	receipt, err := e.RecordMovement(testAccount, 50, false, sign(t, sk, 50, false))
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Fill.AmountIn != 300 || receipt.Fill.AmountOut != 150 {
		t.Errorf("unexpected fill %+v", receipt.Fill)
	}

	v.failSwap = true
	_, err = e.RecordMovement(testAccount, 50, false, sign(t, sk, 50, false))
	if !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("got %v", err)
	}
	if AbortCodeOf(err) != AbortVenue {
		t.Errorf("abort code %s", AbortCodeOf(err))
	}
	if e.AuditLedger().Len() != 1 {
		t.Errorf("aborted call left an event behind")
	}
	if v.Balance(testAccount, testPair.A) != 700 {
		t.Errorf("aborted call moved funds: %d", v.Balance(testAccount, testPair.A))
	}
}

func TestRecordMovementWithoutPool(t *testing.T) {
	e, sk := newTestEngine(t, WithVenue(newFakeVenue()))
	if err := e.SetKey(testAdmin, sk.PublicKey()); err != nil {
		t.Fatal(err)
	}
	_, err := e.RecordMovement(testAccount, 0, true, sign(t, sk, 0, true))
	if AbortCodeOf(err) != AbortPoolNotFound {
		t.Errorf("got %v", err)
	}
	if e.AuditLedger().Len() != 0 {
		t.Errorf("event survived abort")
	}
}

func TestAuditTreeSealing(t *testing.T) {
	tree, err := utils.NewAuditTree("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	e, sk := newTestEngine(t, WithAuditLedger(NewAuditLedger(tree)), WithClock(NewFixedClock(7)))
	if err = e.SetKey(testAdmin, sk.PublicKey()); err != nil {
		t.Fatal(err)
	}
	e.NotionalLedger().Seed(testAccount, 1000, 1000)
	for _, m := range []uint64{25, 50, 0} {
		if _, err = e.RecordNotionalMovement(testAccount, m, false, sign(t, sk, m, false)); err != nil {
			t.Fatal(err)
		}
	}
	audit := e.AuditLedger()
	root := audit.Root()
	for seq := uint64(0); seq < 3; seq++ {
		leaf, proof, err := audit.Proof(seq)
		if err != nil {
			t.Fatal(err)
		}
		if !utils.VerifyMerkleProof(root, seq, proof, leaf) {
			t.Errorf("event %d does not verify against root", seq)
		}
	}
	if _, _, err = audit.Proof(3); !errors.Is(err, ErrEventNotSealed) {
		t.Errorf("got %v", err)
	}

	// a rejected call keeps the root
	if _, err = e.RecordNotionalMovement(testAccount, 99, false, sign(t, sk, 1, false)); err == nil {
		t.Fatal("tampered claim accepted")
	}
	if !bytes.Equal(audit.Root(), root) {
		t.Errorf("root moved after abort")
	}
}
