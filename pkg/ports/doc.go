/*
Package ports defines the driven ports (interfaces) of the scenario-tree generator.

These interfaces decouple the search controller from the prediction model and
from the storage of generated runs.

# Key Interfaces

  - Oracle: Batched black-box scene prediction (kinematic baseline, remote model server).
  - TreeStore: Persists generated runs (Memory, File, Redis, SQLite).
*/
package ports
