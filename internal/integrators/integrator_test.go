package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/hamiltonian"
)

func decay(ctx context.Context, field, rate []float64) (hamiltonian.Summary, error) {
	for i := range field {
		rate[i] = -field[i]
	}
	return hamiltonian.Summary{MaxAlpha: []float64{1}, MaxAbsRate: 1}, nil
}

func fixed(dt float64) StepPicker {
	return func(hamiltonian.Summary) (float64, error) { return dt, nil }
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"euler", 5e-3},
		{"rk2", 2e-5},
		{"rk3", 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if st.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", st.Name(), tt.name)
			}

			field := []float64{1, 2}
			for i := 0; i < 100; i++ {
				dt, err := st.Step(context.Background(), decay, field, fixed(0.01))
				if err != nil {
					t.Fatal(err)
				}
				if dt != 0.01 {
					t.Fatalf("dt = %v, want 0.01", dt)
				}
			}

			for i, y0 := range []float64{1, 2} {
				want := y0 * math.Exp(-1)
				if math.Abs(field[i]-want) > tt.tol*y0 {
					t.Errorf("field[%d] = %.9f, want %.9f", i, field[i], want)
				}
			}
		})
	}
}

func TestStep_PickError(t *testing.T) {
	boom := errors.New("boom")
	for _, name := range Names() {
		st, err := New(name)
		if err != nil {
			t.Fatal(err)
		}
		field := []float64{1}
		_, err = st.Step(context.Background(), decay, field, func(hamiltonian.Summary) (float64, error) { return 0, boom })
		if !errors.Is(err, boom) {
			t.Errorf("%s: expected boom, got %v", name, err)
		}
		if field[0] != 1 {
			t.Errorf("%s: field changed on failed step: %v", name, field[0])
		}
	}
}

func TestStep_NonPositive(t *testing.T) {
	for _, name := range Names() {
		st, _ := New(name)
		_, err := st.Step(context.Background(), decay, []float64{1}, fixed(0))
		if !errors.Is(err, dynamo.ErrNumericalDivergence) {
			t.Errorf("%s: expected ErrNumericalDivergence, got %v", name, err)
		}
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("leapfrog"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func BenchmarkTVDRK3(b *testing.B) {
	st := NewTVDRK3()
	field := make([]float64, 1<<14)
	for i := range field {
		field[i] = 1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.Step(context.Background(), decay, field, fixed(1e-3))
	}
}
