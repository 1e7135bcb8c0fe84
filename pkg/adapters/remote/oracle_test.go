package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/pkg/adapters/kinematic"
	"github.com/aretw0/aime/pkg/adapters/remote"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// modelServer serves the kinematic baseline behind POST /predict.
func modelServer(t *testing.T) *httptest.Server {
	t.Helper()
	model, err := kinematic.New(kinematic.DefaultParams())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Post(remote.PredictPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(dto.PredictResponse{Error: "bad key"})
			return
		}
		var req dto.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		batch := make([]*domain.Observation, len(req.Observations))
		for i, o := range req.Observations {
			batch[i] = o.ToObservation()
		}
		preds, err := model.Predict(r.Context(), batch)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(dto.PredictResponse{Predictions: preds})
	})
	r.Post("/short"+remote.PredictPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.PredictResponse{})
	})
	r.Post("/slow"+remote.PredictPath, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func batch() []*domain.Observation {
	obs := &domain.Observation{
		Agents: []domain.AgentInput{
			{AgentMeta: domain.AgentMeta{TrackID: "ego"}, Velocities: []r2.Vec{{X: 10}}},
			{AgentMeta: domain.AgentMeta{TrackID: "car"}, Velocities: []r2.Vec{{X: 5}}},
		},
		SceneRPE: domain.RelativeEncoding{Size: 1, Values: make([][domain.RelativeChannels]float64, 1), Mask: []bool{true}},
	}
	return []*domain.Observation{obs, obs}
}

func TestOracle_Predict(t *testing.T) {
	srv := modelServer(t)

	o, err := remote.FromParams(map[string]any{
		"url":     srv.URL + "/",
		"timeout": "1s",
		"headers": map[string]any{"X-Api-Key": "secret"},
	})
	require.NoError(t, err)

	preds, err := o.Predict(context.Background(), batch())
	require.NoError(t, err)
	require.Len(t, preds, 2)
	require.Len(t, preds[0].Modes, 5)
	assert.Len(t, preds[0].Modes[0].Tracks, 2)
	assert.InDelta(t, 60.0, preds[0].Modes[0].Tracks[0].Positions[59].X, 1e-9)
}

func TestOracle_Errors(t *testing.T) {
	srv := modelServer(t)

	t.Run("Status", func(t *testing.T) {
		o, err := remote.New(remote.Params{URL: srv.URL})
		require.NoError(t, err)
		_, err = o.Predict(context.Background(), batch())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "bad key")
	})

	t.Run("Count Mismatch", func(t *testing.T) {
		o, err := remote.New(remote.Params{URL: srv.URL + "/short"})
		require.NoError(t, err)
		_, err = o.Predict(context.Background(), batch())
		assert.ErrorIs(t, err, domain.ErrMalformedPrediction)
	})

	t.Run("Cancelled", func(t *testing.T) {
		o, err := remote.New(remote.Params{URL: srv.URL + "/slow"})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = o.Predict(ctx, batch())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Params", func(t *testing.T) {
		_, err := remote.FromParams(map[string]any{})
		assert.Error(t, err)
		_, err = remote.FromParams(map[string]any{"url": "http://x", "retries": 3})
		assert.Error(t, err)
	})
}
