package estimator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type predictRequest struct {
	Features []Feature `json:"features"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Remote calls a statistical accent model served over HTTP. Requests are
// rate limited and bounded by the caller's context and the client timeout.
type Remote struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemote returns an estimator posting to url. An empty url yields an
// estimator that always reports ErrEstimatorUnavailable. rps <= 0 disables
// rate limiting.
func NewRemote(url string, rps float64, timeout time.Duration) *Remote {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Remote{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Predict implements Estimator.
func (r *Remote) Predict(ctx context.Context, features []Feature) ([]Prediction, error) {
	if r == nil || r.url == "" {
		return nil, ErrEstimatorUnavailable
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimatorUnavailable, err)
	}
	body, err := sonic.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimatorUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimatorUnavailable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimatorUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrEstimatorUnavailable, r.url, resp.StatusCode)
	}
	var out predictResponse
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode estimator response: %w", err)
	}
	log.Debug().
		Str("url", r.url).
		Int("nodes", len(features)).
		Dur("took", time.Since(start)).
		Msg("accent estimated")
	return out.Predictions, nil
}
