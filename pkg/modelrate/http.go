package modelrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quotewise/quote-engine/pkg/apperrors"
	"github.com/quotewise/quote-engine/pkg/retry"
)

// HTTPProvider resolves model rates from a remote rate-library service.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider against the given base URL.
func NewHTTPProvider(baseURL string, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.Named("modelrate_http"),
	}
}

type lookupResponse struct {
	ModelRate      *float64 `json:"modelRate"`
	ComponentCount *int     `json:"componentCount"`
}

// Lookup POSTs the criteria to the rate service. A 404 means the library has
// no entry and yields an empty Result with no error.
func (p *HTTPProvider) Lookup(ctx context.Context, criteria Criteria) (Result, error) {
	body, err := json.Marshal(criteria)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode criteria: %w", err)
	}

	return retry.DoWithResult(ctx, p.retryCfg, func() (Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rates/lookup", bytes.NewReader(body))
		if err != nil {
			return Result{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", apperrors.ErrModelRateLookupFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return Result{}, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			p.logger.Warn("rate lookup failed",
				zap.Int("status", resp.StatusCode),
				zap.String("system_id", criteria.SystemID))
			return Result{}, fmt.Errorf("%w: status %d: %s",
				apperrors.ErrModelRateLookupFailed, resp.StatusCode, string(payload))
		}

		var decoded lookupResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return Result{}, fmt.Errorf("%w: invalid response: %v", apperrors.ErrModelRateLookupFailed, err)
		}

		res := Result{Rate: decoded.ModelRate, ComponentCount: decoded.ComponentCount}
		if res.Rate != nil && *res.Rate <= 0 {
			res = Result{}
		}
		return res, nil
	})
}
