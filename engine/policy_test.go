package engine

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDecide(t *testing.T) {
	aToB30 := Instruction{From: SideA, To: SideB, Percent: 30}
	aToB10 := Instruction{From: SideA, To: SideB, Percent: 10}
	bToA30 := Instruction{From: SideB, To: SideA, Percent: 30}
	cases := []struct {
		magnitude uint64
		increase  bool
		want      Instruction
	}{
		{50, false, aToB30},
		{75, false, aToB30},
		{math.MaxUint64, false, aToB30},
		{49, false, aToB10},
		{25, false, aToB10},
		{24, false, bToA30},
		{0, false, bToA30},
		{0, true, bToA30},
		{25, true, bToA30},
		{100, true, bToA30},
	}
	for _, c := range cases {
		if got := Decide(c.magnitude, c.increase); got != c.want {
			t.Errorf("decide(%d, %v) = %+v, want %+v", c.magnitude, c.increase, got, c.want)
		}
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		balance, percent, want uint64
	}{
		{1000, 30, 300},
		{1000, 10, 100},
		{3, 30, 0},
		{9, 10, 0},
		{10, 10, 1},
		{0, 30, 0},
		{1000, 150, 1000},
		{math.MaxUint64, 30, 5534023222112865484},
	}
	for _, c := range cases {
		if got := PercentOf(c.balance, c.percent); got != c.want {
			t.Errorf("percentOf(%d, %d) = %d, want %d", c.balance, c.percent, got, c.want)
		}
	}
}

func TestTruncationProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("moved amount is floor(n*p/100) and never exceeds n", prop.ForAll(
		func(n uint64, p uint64) bool {
			got := PercentOf(n, p)
			return got <= n && got*100 <= n*p && (got+1)*100 > n*p
		},
		gen.UInt64Range(0, 1<<40), gen.UInt64Range(0, 100),
	))
	properties.Property("apply conserves the account total", prop.ForAll(
		func(a, b uint64, p uint64, aToB bool) bool {
			l := NewNotionalLedger()
			l.Seed("0x1", a, b)
			moved := l.Apply("0x1", p, aToB)
			got := l.Get("0x1")
			return got.A+got.B == a+b && moved <= a+b
		},
		gen.UInt64Range(0, 1<<40), gen.UInt64Range(0, 1<<40), gen.UInt64Range(0, 100), gen.Bool(),
	))
	properties.TestingRun(t)
}

func TestDescribe(t *testing.T) {
	pair := AssetPair{A: "SUPRA", B: "USDT"}
	got := Decide(50, false).Describe(pair)
	if got != "swap 30% of SUPRA (A) to USDT (B)" {
		t.Errorf("got %q", got)
	}
}
