package state

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		block, name string
		want        Var
		wantErr     bool
	}{
		{BlockCaseR, "SREF", Sref, false},
		{BlockSurfGeomR, "XYZLES", XYZLES, false},
		{BlockVrtxR, "GAM_D", GamD, false},
		{BlockCaseR, "NOPE", 0, true},
		{BlockCaseI, "SREF", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.block+"."+tt.name, func(t *testing.T) {
			got, err := Resolve(tt.block, tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownVariable) {
					t.Fatalf("expected ErrUnknownVariable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTableComplete(t *testing.T) {
	seen := make(map[string]bool)
	for _, v := range Vars() {
		d := Lookup(v)
		key := d.Block + "." + d.Name
		if seen[key] {
			t.Errorf("duplicate variable %s", key)
		}
		seen[key] = true
		if d.Kind == KindString && d.Width == 0 {
			t.Errorf("%s: string variable without width", key)
		}
		if d.Diff && d.Kind != KindReal {
			t.Errorf("%s: differentiable variable must be real", key)
		}
	}
}

func TestOffsetColumnMajor(t *testing.T) {
	d := Lookup(XYZLES)
	if got := d.Offset(0, 0, 0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := d.Offset(1, 0, 0); got != 1 {
		t.Errorf("first index must be fastest, got %d", got)
	}
	if got := d.Offset(0, 1, 0); got != NFMAX {
		t.Errorf("expected %d, got %d", NFMAX, got)
	}
	if got := d.Offset(0, 0, 2); got != 2*NFMAX*NSECMAX {
		t.Errorf("expected %d, got %d", 2*NFMAX*NSECMAX, got)
	}
}

func TestDescribeBounds(t *testing.T) {
	if _, err := Describe(Sref); err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	for _, v := range []Var{-1, numVars} {
		if _, err := Describe(v); !errors.Is(err, ErrUnknownVariable) {
			t.Errorf("%s: expected ErrUnknownVariable, got %v", v, err)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Lookup to panic")
		}
	}()
	Lookup(numVars)
}
