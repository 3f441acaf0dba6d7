package solver_test

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
	"github.com/san-kum/hjreach/internal/physics"
	"github.com/san-kum/hjreach/internal/solver"
)

func sample(g *grid.Grid, fn func(x []float64) float64) []float64 {
	out := make([]float64, g.Len())
	x := make([]float64, g.Dims())
	for i := range out {
		g.State(i, x)
		out[i] = fn(x)
	}
	return out
}

func finite(field []float64) bool {
	for _, v := range field {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var _ = Describe("Solving on a line over [-4, 4]", func() {
	var (
		g  *grid.Grid
		v0 []float64
	)

	BeforeEach(func() {
		var err error
		g, err = grid.New([]float64{-4}, []float64{4}, []int{101}, nil)
		Expect(err).NotTo(HaveOccurred())
		v0 = sample(g, func(x []float64) float64 { return math.Abs(x[0]) - 1 })
	})

	Context("with zero input bounds and no combination", func() {
		It("returns the initial field", func() {
			sys, err := physics.NewPlane1D(0, 0, dynamo.Minimize, dynamo.Maximize)
			Expect(err).NotTo(HaveOccurred())

			cfg := solver.DefaultConfig()
			cfg.Times = []float64{0, 1}
			cfg.Mode = solver.None
			s, err := solver.New(g, sys, v0, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fields).To(HaveLen(1))
			for i, v := range res.Final() {
				Expect(v).To(BeNumerically("~", v0[i], 1e-12))
			}
		})
	})

	Context("with symmetric bounds and the running minimum", func() {
		It("keeps every snapshot below the initial field", func() {
			sys, err := physics.NewPlane1D(1, 1, dynamo.Minimize, dynamo.Maximize)
			Expect(err).NotTo(HaveOccurred())

			cfg := solver.DefaultConfig()
			cfg.Times = []float64{0, 0.5, 1.0}
			cfg.Mode = solver.MinWithInitial
			cfg.SaveAllSteps = true
			s, err := solver.New(g, sys, v0, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fields).To(HaveLen(3))
			Expect(res.Times).To(Equal([]float64{0, 0.5, 1.0}))
			for _, f := range res.Fields {
				Expect(f).To(HaveLen(g.Len()))
				for i, v := range f {
					Expect(v).To(BeNumerically("<=", v0[i]))
				}
			}
		})
	})

	Context("with an attracting control", func() {
		It("grows the zero sublevel set at the control speed", func() {
			// the evader can move at unit speed toward the target |x| <= 1
			sys, err := physics.NewPlane1D(1, 0, dynamo.Minimize, dynamo.Maximize)
			Expect(err).NotTo(HaveOccurred())

			cfg := solver.DefaultConfig()
			cfg.Times = []float64{0, 1}
			cfg.Mode = solver.MinWithInitial
			s, err := solver.New(g, sys, v0, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			final := res.Final()
			Expect(final[g.NearestIndex(0, 1.5)]).To(BeNumerically("<", 0))
			Expect(final[g.NearestIndex(0, -1.5)]).To(BeNumerically("<", 0))
			Expect(final[g.NearestIndex(0, 2.5)]).To(BeNumerically(">", 0))
			Expect(final[g.NearestIndex(0, 3.5)]).To(BeNumerically("~", 1.5, 0.05))
		})
	})

	It("refuses a second run", func() {
		s, err := solver.New(g, physics.NewStill(1), v0, solver.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrSolverState))
		Expect(s.State()).To(Equal(solver.Done))
	})

	It("stops when the context is cancelled", func() {
		sys, err := physics.NewPlane1D(1, 0.5, dynamo.Minimize, dynamo.Maximize)
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s, err := solver.New(g, sys, v0, solver.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		res, err := s.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res).To(BeNil())
		Expect(s.State()).To(Equal(solver.Failed))
	})
})

var _ = Describe("Dubins capture on a periodic heading axis", func() {
	It("stays finite for random initial fields", func() {
		g, err := grid.New(
			[]float64{-3, -1, -math.Pi},
			[]float64{3, 1, math.Pi},
			[]int{12, 12, 12},
			[]int{2},
		)
		Expect(err).NotTo(HaveOccurred())
		sys, err := physics.NewDubinsCapture(1, 1, 1, dynamo.Maximize, dynamo.Minimize)
		Expect(err).NotTo(HaveOccurred())

		rng := rand.New(rand.NewSource(7))
		for trial := 0; trial < 3; trial++ {
			v0 := sample(g, func(x []float64) float64 {
				return math.Hypot(x[0], x[1]) - 0.5 + 0.1*rng.NormFloat64()
			})
			cfg := solver.DefaultConfig()
			cfg.Times = []float64{0, 0.1, 0.2}
			cfg.SaveAllSteps = true
			s, err := solver.New(g, sys, v0, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			for _, f := range res.Fields {
				Expect(finite(f)).To(BeTrue())
			}
		}
	})
})
