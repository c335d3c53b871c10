package config

import "testing"

func TestNewValid(t *testing.T) {
	c, err := New(160, 20, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.B != 160 || c.K != 20 || c.Alpha != 3 {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestNewRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name       string
		b, k, a    uint32
	}{
		{"b zero", 0, 20, 3},
		{"b too wide", 161, 20, 3},
		{"k zero", 160, 0, 1},
		{"alpha zero", 160, 20, 0},
		{"alpha exceeds k", 160, 5, 6},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := New(c.b, c.k, c.a); err == nil {
				t.Fatalf("expected validation error for %+v", c)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
}
