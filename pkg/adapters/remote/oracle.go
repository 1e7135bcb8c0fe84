// Package remote implements ports.Oracle against a model server speaking
// JSON over HTTP.
//
// The server receives a batch of normalised observations on POST /predict
// and answers with one prediction per observation, in order.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// PredictPath is the model server endpoint.
const PredictPath = "/predict"

// Params configures the client.
type Params struct {
	URL     string            `mapstructure:"url"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

// Oracle is an HTTP prediction client.
type Oracle struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// New creates a client for the server at p.URL.
func New(p Params) (*Oracle, error) {
	if p.URL == "" {
		return nil, errors.New("remote oracle url is required")
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return &Oracle{
		endpoint: strings.TrimSuffix(p.URL, "/") + PredictPath,
		headers:  p.Headers,
		client:   &http.Client{Timeout: p.Timeout},
	}, nil
}

// FromParams decodes a config parameter map. Timeouts accept duration
// strings such as "500ms".
func FromParams(raw map[string]any) (*Oracle, error) {
	var p Params
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid remote oracle params: %w", err)
	}
	return New(p)
}

// Predict sends the batch and waits for the predictions.
func (o *Oracle) Predict(ctx context.Context, batch []*domain.Observation) ([]domain.Prediction, error) {
	req := dto.PredictRequest{Observations: make([]dto.Observation, len(batch))}
	for i, obs := range batch {
		req.Observations[i] = dto.FromObservation(obs)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range o.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	var out dto.PredictResponse
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(msg, &out) == nil && out.Error != "" {
			return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPrediction, err)
	}
	if len(out.Predictions) != len(batch) {
		return nil, fmt.Errorf("%w: got %d predictions for %d observations",
			domain.ErrMalformedPrediction, len(out.Predictions), len(batch))
	}
	return out.Predictions, nil
}
