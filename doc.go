/*
Package aime generates scenario trees for multi-agent traffic prediction.

Given the observed history of the agents around an ego vehicle and the lane
it should follow, the Generator grows a tree of possible futures (AIME:
Adaptive Iterative Multi-modal Expansion). Each round feeds the open leaves
to a prediction oracle in one batch, prunes unlikely or off-route modes,
merges modes with the same interaction topology and branches again where
the predicted uncertainty grows too fast. Finished branches are returned as
probability-weighted trajectory trees, ready for a downstream planner.

# Architecture

The search controller is pure; the prediction model and the storage of
results are ports:

  - ports.Oracle: batched scene prediction (kinematic baseline, remote model server).
  - ports.TreeStore: persistence of generated runs (Memory, File, Redis, SQLite).

# Usage

	oracle, err := kinematic.New(kinematic.DefaultParams())
	if err != nil {
		log.Fatal(err)
	}

	gen, err := aime.New(aime.WithOracle(oracle))
	if err != nil {
		log.Fatal(err)
	}

	gen.SetTargetLane(route, nil)

	trees, err := gen.Generate(ctx, sample, observation)
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range trees {
		t.Walk(t.Root().Key, func(n *tree.Node[domain.TrajectoryNode]) bool {
			fmt.Println(n.Key, n.Data.Prob)
			return true
		})
	}
*/
package aime
