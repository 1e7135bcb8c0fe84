package aime_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/aime"
	"github.com/aretw0/aime/internal/testutils"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/tree"
)

// ExampleGenerator_Generate grows the scenario tree of a highway scene with a
// single-mode oracle and walks the resulting trajectory tree.
func ExampleGenerator_Generate() {
	sc := testutils.HighwayScene(50, 10)

	gen, err := aime.New(aime.WithOracle(cruiseOracle(60)))
	if err != nil {
		log.Fatal(err)
	}
	gen.SetTargetLane(sc.TargetLane.Points, sc.TargetLane.Attributes)

	trees, err := gen.Generate(context.Background(), sc.Sample, sc.Observation)
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range trees {
		t.Walk(t.Root().Key, func(n *tree.Node[domain.TrajectoryNode]) bool {
			fmt.Printf("%s p=%.2f steps %d..%d\n", n.Key, n.Data.Prob, n.Data.CurT, n.Data.EndT)
			return true
		})
	}
	// Output:
	// 1_0_0 p=1.00 steps 0..60
}
