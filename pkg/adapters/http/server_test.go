package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/aime"
	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/internal/testutils"
	api "github.com/aretw0/aime/pkg/adapters/http"
	"github.com/aretw0/aime/pkg/adapters/kinematic"
	"github.com/aretw0/aime/pkg/adapters/memory"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/observability"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	err error
}

func (f fakeGenerator) GenerateWithLane(ctx context.Context, lane domain.TargetLane, sample domain.LocalSample, obs domain.AgentObservation) (*domain.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	run := ports.SampleRun("fake")
	return &domain.Result{RunID: run.ID, Trees: run.Trees, Stats: run.Stats}, nil
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestServer_Health(t *testing.T) {
	h := api.NewHandler(fakeGenerator{})
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_GenerateErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("wrap: %w", domain.ErrTargetLaneMissing), http.StatusBadRequest},
		{domain.ErrMalformedObservation, http.StatusBadRequest},
		{domain.ErrNoValidScenario, http.StatusUnprocessableEntity},
		{domain.ErrMalformedPrediction, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("oracle down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := api.NewHandler(fakeGenerator{err: tt.err})
			rec := do(t, h, http.MethodPost, "/v1/generate", dto.GenerateRequest{})
			assert.Equal(t, tt.code, rec.Code)

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}

	t.Run("Invalid Body", func(t *testing.T) {
		h := api.NewHandler(fakeGenerator{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Runs(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	older := ports.SampleRun("older")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, store.Save(ctx, "older", older))
	require.NoError(t, store.Save(ctx, "newer", ports.SampleRun("newer")))

	h := api.NewHandler(fakeGenerator{}, api.WithStore(store))

	rec := do(t, h, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []domain.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "older", summaries[0].ID)
	assert.Equal(t, 1, summaries[1].Trees)

	rec = do(t, h, http.MethodGet, "/v1/runs/newer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var run domain.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.Len(t, run.Trees, 1)
	assert.Equal(t, 2, run.Trees[0].Len())

	rec = do(t, h, http.MethodGet, "/v1/runs/newer/mermaid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph TD")
	assert.Contains(t, rec.Body.String(), "class s_2_0_1 highlight;")

	rec = do(t, h, http.MethodGet, "/v1/runs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/runs/newer", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/runs/newer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("No Store", func(t *testing.T) {
		rec := do(t, api.NewHandler(fakeGenerator{}), http.MethodGet, "/v1/runs", nil)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestServer_EndToEnd(t *testing.T) {
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	oracle, err := kinematic.New(kinematic.DefaultParams())
	require.NoError(t, err)

	gen, err := aime.New(aime.WithOracle(oracle), aime.WithStore(store), aime.WithHooks(metrics.Hooks()))
	require.NoError(t, err)

	h := api.NewHandler(gen, api.WithStore(store), api.WithGatherer(reg))

	sc := testutils.HighwayScene(50, 10)
	rec := do(t, h, http.MethodPost, "/v1/generate", dto.GenerateRequest{
		Sample:      sc.Sample,
		Observation: sc.Observation,
		TargetLane:  sc.TargetLane,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.NotEmpty(t, resp.Trees)
	assert.Positive(t, resp.Stats.OracleCalls)

	rec = do(t, h, http.MethodGet, "/v1/runs/"+resp.RunID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aime_rounds_total")
	assert.Contains(t, rec.Body.String(), `aime_runs_total{result="ok"} 1`)
}
