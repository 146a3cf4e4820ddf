package bottomup_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/internal/egtest"
)

// benchOpts is a medium random shape; inputs are built outside the timer.
func benchOpts() egtest.RandomOptions {
	o := egtest.DefaultRandomOptions()
	o.Classes = 2000
	o.MaxNodes = 4
	o.BackEdges = 0.2

	return o
}

func BenchmarkSweep_Sequential(b *testing.B) {
	g := egtest.MustRandom(b, 42, benchOpts())
	x := bottomup.New()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := x.Sweep(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSweep_Parallel4(b *testing.B) {
	g := egtest.MustRandom(b, 42, benchOpts())
	x := bottomup.New(bottomup.WithWorkers(4))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := x.Sweep(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWorklist(b *testing.B) {
	g := egtest.MustRandom(b, 42, benchOpts())
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bottomup.Worklist(ctx, g); err != nil {
			b.Fatal(err)
		}
	}
}
