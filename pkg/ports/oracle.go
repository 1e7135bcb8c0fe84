package ports

import (
	"context"

	"github.com/aretw0/aime/pkg/domain"
)

// Oracle predicts the joint future of a batch of normalised scenes.
type Oracle interface {
	// Predict returns one Prediction per observation, in order. Every mode
	// carries one track per agent of its observation, in the agent's
	// instance frame.
	Predict(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error)

// Predict calls f.
func (f OracleFunc) Predict(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error) {
	return f(ctx, batch)
}
