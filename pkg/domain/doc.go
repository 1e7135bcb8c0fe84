/*
Package domain contains the core types of the scenario-tree generator.

It defines what flows through the AIME loop: raw agent observations, the
normalised observation windows handed to the prediction oracle, the oracle's
multi-modal predictions, the scenarios stored in the search tree and the
probability-weighted trees returned to planners. The package is kept free of
I/O and persistence concerns.

# Key Entities

  - AgentObservation / LocalSample: raw inputs of a planning cycle.
  - Observation: a normalised window fed to the oracle (scene frame, agent
    instance frames, lanes, goal).
  - Prediction: per-observation multi-modal output of the oracle.
  - Scenario: one hypothesis with its cumulative probability and history.
  - ScenarioNode: the tagged Pending/Predicted payload of a search-tree node.
  - ScenarioTree: an exported, normalised tree of trajectory segments.
*/
package domain
