package utils

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestConvertFloatStrToUint64(t *testing.T) {
	cases := []struct {
		in   string
		mul  int64
		want uint64
	}{
		{"0.0", 100000000, 0},
		{"1", 100000000, 100000000},
		{"12.5", 100000000, 1250000000},
		{"0.00000001", 100000000, 1},
	}
	for _, c := range cases {
		got, err := ConvertFloatStrToUint64(c.in, c.mul)
		if err != nil {
			t.Fatalf("convert %s: %s", c.in, err.Error())
		}
		if got != c.want {
			t.Errorf("convert %s: got %d want %d", c.in, got, c.want)
		}
	}
	if _, err := ConvertFloatStrToUint64("-1", 100); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount should be rejected, got %v", err)
	}
	if _, err := ConvertFloatStrToUint64("1e30", 1); err == nil {
		t.Errorf("overflow should be rejected")
	}
}

func TestFormatUnits(t *testing.T) {
	if s := FormatUnits(1250000000, DefaultAssetDecimals); s != "12.5" {
		t.Errorf("got %s", s)
	}
	if m := DecimalsMultiplier(8); m != 100000000 {
		t.Errorf("got %d", m)
	}
}

func TestPercentOfBalance(t *testing.T) {
	if v := PercentOfBalance(1000, 30); v != 300 {
		t.Errorf("got %d", v)
	}
	if v := PercentOfBalance(3, 30); v != 0 {
		t.Errorf("got %d", v)
	}
	if v := PercentOfBalance(math.MaxUint64, 100); v != math.MaxUint64 {
		t.Errorf("got %d", v)
	}
}

func TestConvertMysqlErrToDbErr(t *testing.T) {
	if err := ConvertMysqlErrToDbErr(&mysql.MySQLError{Number: 1146}); err != DbErrTableNotFound {
		t.Errorf("got %v", err)
	}
	other := errors.New("boom")
	if err := ConvertMysqlErrToDbErr(other); err != other {
		t.Errorf("got %v", err)
	}
}

func TestInjectMysqlPassword(t *testing.T) {
	s, err := InjectMysqlPassword("gateway:@tcp(127.0.0.1:3306)/gateway?parseTime=true", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if s != "gateway:pw@tcp(127.0.0.1:3306)/gateway?parseTime=true" {
		t.Errorf("got %s", s)
	}
	if _, err = InjectMysqlPassword("nonsense", "pw"); err == nil {
		t.Errorf("expected error")
	}
}

func TestAuditTreeProof(t *testing.T) {
	tree, err := NewAuditTree("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	leaves := make([][]byte, 3)
	for i := range leaves {
		leaves[i] = EventLeafHash(uint64(i), uint64(25*i), i%2 == 0, uint64(1000+i))
		if err = tree.Set(uint64(i), leaves[i]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err = tree.Commit(nil); err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	for i := range leaves {
		proof, err := tree.GetProof(uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		if !VerifyMerkleProof(root, uint64(i), proof, leaves[i]) {
			t.Errorf("proof for leaf %d does not verify", i)
		}
	}
	proof, _ := tree.GetProof(1)
	if VerifyMerkleProof(root, 1, proof, leaves[0]) {
		t.Errorf("wrong leaf verified")
	}
	if _, err = NewAuditTree("bolt", ""); !errors.Is(err, ErrUnknownTreeDriver) {
		t.Errorf("got %v", err)
	}
}

func TestEventLeafHashDistinguishesDirection(t *testing.T) {
	a := EventLeafHash(0, 25, true, 7)
	b := EventLeafHash(0, 25, false, 7)
	if bytes.Equal(a, b) {
		t.Errorf("direction not committed")
	}
}

func TestCheckEventSequence(t *testing.T) {
	if err := CheckEventSequence([]EventRecord{{Seq: 0}, {Seq: 1}}); err != nil {
		t.Errorf("got %v", err)
	}
	if err := CheckEventSequence([]EventRecord{{Seq: 1}}); !errors.Is(err, ErrEventSequence) {
		t.Errorf("got %v", err)
	}
}
