package runtime

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/aime/pkg/domain"
)

// predictBatch calls the oracle once for the whole batch and checks that the
// output matches it. horizons[b] is the number of steps observation b still
// needs to reach PredLen. Oracle errors are returned as-is, wrapped.
func (e *Engine) predictBatch(ctx context.Context, s *search, batch []*domain.Observation, horizons []int) ([]domain.Prediction, error) {
	start := time.Now()
	preds, err := e.oracle.Predict(ctx, batch)
	latency := time.Since(start)
	s.stats.OracleCalls++

	if err == nil {
		err = validatePredictions(batch, horizons, preds)
	} else {
		err = fmt.Errorf("oracle failed on round %d: %w", s.round, err)
	}

	if e.hooks.OnOracleCall != nil {
		e.hooks.OnOracleCall(ctx, &domain.OracleEvent{
			EventBase: e.base(domain.EventOracleCall, s.runID),
			Round:     s.round,
			BatchSize: len(batch),
			Latency:   latency,
			Err:       err,
		})
	}
	e.logger.Debug("oracle called", "run_id", s.runID, "round", s.round, "batch", len(batch), "latency", latency)
	return preds, err
}

func validatePredictions(batch []*domain.Observation, horizons []int, preds []domain.Prediction) error {
	if len(preds) != len(batch) {
		return fmt.Errorf("%w: %d predictions for %d observations", domain.ErrMalformedPrediction, len(preds), len(batch))
	}
	for b, p := range preds {
		agents := len(batch[b].Agents)
		for m, mode := range p.Modes {
			if math.IsNaN(mode.Prob) || math.IsInf(mode.Prob, 0) || mode.Prob < 0 {
				return fmt.Errorf("%w: batch %d mode %d has probability %v", domain.ErrMalformedPrediction, b, m, mode.Prob)
			}
			if len(mode.Tracks) != agents {
				return fmt.Errorf("%w: batch %d mode %d has %d tracks for %d agents", domain.ErrMalformedPrediction, b, m, len(mode.Tracks), agents)
			}
			steps := -1
			for a, tr := range mode.Tracks {
				n := len(tr.Positions)
				if n == 0 || len(tr.Sigmas) != n || len(tr.Velocities) != n {
					return fmt.Errorf("%w: batch %d mode %d agent %d has %d/%d/%d steps",
						domain.ErrMalformedPrediction, b, m, a, n, len(tr.Sigmas), len(tr.Velocities))
				}
				if steps >= 0 && n != steps {
					return fmt.Errorf("%w: batch %d mode %d tracks have different lengths", domain.ErrMalformedPrediction, b, m)
				}
				steps = n
			}
			if steps < horizons[b] {
				return fmt.Errorf("%w: batch %d mode %d covers %d steps, need %d",
					domain.ErrMalformedPrediction, b, m, steps, horizons[b])
			}
		}
	}
	return nil
}
