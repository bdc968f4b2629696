package main

import "testing"

func TestParseSweepVar(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		steps int
		ok    bool
	}{
		{"alpha=0:10:6", "alpha", 6, true},
		{"flap=-5:5:3", "flap", 3, true},
		{"roll rate=0:0.1:2", "roll rate", 2, true},
		{"alpha", "", 0, false},
		{"alpha=0:10", "", 0, false},
		{"alpha=a:10:3", "", 0, false},
		{"alpha=0:10:x", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, xs, err := parseSweepVar(tt.in)
			if !tt.ok {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if name != tt.name || len(xs) != tt.steps {
				t.Errorf("expected %s with %d steps, got %s with %d", tt.name, tt.steps, name, len(xs))
			}
		})
	}
}
