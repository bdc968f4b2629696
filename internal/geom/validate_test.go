package geom

import (
	"errors"
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func testAircraft() *Aircraft {
	return &Aircraft{
		Title:  "test",
		Sref:   10,
		Cref:   1,
		Bref:   10,
		XYZref: []float64{0.25, 0, 0},
		DName:  []string{"flap"},
		Surfaces: Ordered[Surface]{
			{Name: "Wing", Value: Surface{
				NumSections: 2,
				NumControls: []int{1, 1},
				YDuplicate:  fptr(0),
				XLEs:        []float64{0, 0.2},
				YLEs:        []float64{0, 5},
				ZLEs:        []float64{0, 0},
				Chords:      []float64{1.2, 0.8},
				AIncs:       []float64{2, 0},
				NACA:        []string{"2412", "0012"},
				NChordwise:  4,
				CSpace:      1,
				IContD:      [][]int{{0}, {0}},
				XHinged:     [][]float64{{0.75}, {0.75}},
				VHinged:     [][][]float64{{{0, 1, 0}}, {{0, 1, 0}}},
				GainD:       [][]float64{{1}, {1}},
				RefLD:       [][]float64{{1}, {1}},
			}},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	r, err := Validate(testAircraft())
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", r.Warnings)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Aircraft)
		want   error
	}{
		{"one section", func(a *Aircraft) {
			s := &a.Surfaces[0].Value
			s.NumSections = 1
		}, ErrSizeMismatch},
		{"two airfoil methods", func(a *Aircraft) {
			a.Surfaces[0].Value.AFiles = []string{"a.dat", "b.dat"}
		}, ErrConflictingSpecification},
		{"short chords", func(a *Aircraft) {
			a.Surfaces[0].Value.Chords = []float64{1}
		}, ErrSizeMismatch},
		{"redundant symmetry", func(a *Aircraft) {
			a.IYSym = 1
		}, ErrRedundantSymmetry},
		{"control count", func(a *Aircraft) {
			a.Surfaces[0].Value.XHinged = [][]float64{{0.75, 0.8}, {0.75}}
		}, ErrSizeMismatch},
		{"control names", func(a *Aircraft) {
			a.DName = []string{"flap", "aileron"}
		}, ErrSizeMismatch},
		{"missing chords", func(a *Aircraft) {
			a.Surfaces[0].Value.Chords = nil
		}, ErrMissingRequired},
		{"zero Sref", func(a *Aircraft) {
			a.Sref = 0
		}, ErrMissingRequired},
		{"bad naca", func(a *Aircraft) {
			a.Surfaces[0].Value.NACA = []string{"23012", "0012"}
		}, ErrUnsupported},
		{"body without outline", func(a *Aircraft) {
			a.Bodies = Ordered[Body]{{Name: "Fuse", Value: Body{NVB: 4}}}
		}, ErrMissingRequired},
		{"body with two outlines", func(a *Aircraft) {
			a.Bodies = Ordered[Body]{{Name: "Fuse", Value: Body{
				NVB: 4, BFile: "fuse.dat",
				BodyOML: [][]float64{{0, 1, 2}, {0, 0.1, 0}},
			}}}
		}, ErrConflictingSpecification},
		{"duplicate surface", func(a *Aircraft) {
			a.Surfaces = append(a.Surfaces, a.Surfaces[0])
		}, ErrDuplicateName},
		{"surface named like an image", func(a *Aircraft) {
			tail := a.Surfaces[0]
			tail.Name = MirrorName("Wing")
			tail.Value.YDuplicate = nil
			a.Surfaces = append(a.Surfaces, tail)
		}, ErrDuplicateName},
		{"body named like a surface", func(a *Aircraft) {
			a.Bodies = Ordered[Body]{{Name: "Wing", Value: Body{
				NVB: 4, BodyOML: [][]float64{{0, 1, 2}, {0, 0.1, 0}},
			}}}
		}, ErrDuplicateName},
		{"control named like a freestream variable", func(a *Aircraft) {
			a.DName = []string{"alpha"}
		}, ErrDuplicateName},
		{"control declared twice", func(a *Aircraft) {
			a.DName = []string{"flap", "flap"}
			a.Surfaces[0].Value.IContD = [][]int{{0}, {1}}
		}, ErrDuplicateName},
		{"body sections", func(a *Aircraft) {
			a.Bodies = Ordered[Body]{{Name: "Fuse", Value: Body{
				NVB: 4, BFile: "fuse.dat", Extra: map[string]any{"num_sections": 2},
			}}}
		}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAircraft()
			tt.mutate(a)
			_, err := Validate(a)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateWarnsUnknownKeys(t *testing.T) {
	a := testAircraft()
	a.Extra = map[string]any{"colour": "red"}
	a.Surfaces[0].Value.Extra = map[string]any{"twist": 3.0}

	r, err := Validate(a)
	if err != nil {
		t.Fatalf("unknown keys must not be fatal: %v", err)
	}
	if len(r.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", r.Warnings)
	}
	if r.Warnings[1].Path != "surfaces.Wing" || r.Warnings[1].Key != "twist" {
		t.Errorf("unexpected warning %v", r.Warnings[1])
	}
}

func TestDecodeKeepsOrder(t *testing.T) {
	src := `
title: order
Sref: 1
Cref: 1
Bref: 1
surfaces:
  Zeta:
    num_sections: 2
    xles: [0, 0]
    yles: [0, 1]
    zles: [0, 0]
    chords: [1, 1]
    aincs: [0, 0]
    nchordwise: 2
    cspace: 1
    bogus: 1
  Alpha:
    num_sections: 2
    xles: [0, 0]
    yles: [0, 1]
    zles: [0, 0]
    chords: [1, 1]
    aincs: [0, 0]
    nchordwise: 2
    cspace: 1
`
	a, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	names := a.Surfaces.Names()
	if len(names) != 2 || names[0] != "Zeta" || names[1] != "Alpha" {
		t.Errorf("expected [Zeta Alpha], got %v", names)
	}

	r, err := Validate(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Key != "bogus" {
		t.Errorf("expected one warning for bogus, got %v", r.Warnings)
	}

	var sb strings.Builder
	if err := Encode(&sb, a); err != nil {
		t.Fatal(err)
	}
	if strings.Index(sb.String(), "Zeta") > strings.Index(sb.String(), "Alpha") {
		t.Error("encode did not keep declaration order")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	a := testAircraft()
	a.Normalize()
	s := a.Surfaces[0].Value

	if *s.Component != 1 {
		t.Errorf("expected component 1, got %d", *s.Component)
	}
	if len(s.CLAF) != 2 || s.CLAF[0] != 1 {
		t.Errorf("expected unit claf, got %v", s.CLAF)
	}
	if len(s.XFMinMax) != 2 || s.XFMinMax[1][1] != 1 {
		t.Errorf("expected default xfminmax, got %v", s.XFMinMax)
	}
	if !*s.Wake || !*s.Albe || !*s.Load {
		t.Error("expected wake, albe and load to default on")
	}
	if *a.CDp != 0 {
		t.Errorf("expected CDp 0, got %v", *a.CDp)
	}
}

func TestDecodeRejectsDuplicateKeys(t *testing.T) {
	src := `
title: dup
Sref: 1
Cref: 1
Bref: 1
surfaces:
  A:
    num_sections: 2
  A:
    num_sections: 3
`
	_, err := Decode(strings.NewReader(src))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}
