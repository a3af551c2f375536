package rutube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/util"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

// Requester performs a single GET against Rutube. Non-2xx answers and
// transport failures come back as *errors.APIError.
type Requester interface {
	DoRequest(ctx context.Context, rawURL string, params url.Values, timeout time.Duration) ([]byte, error)
	BaseURL() string
}

type APIClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

func NewAPIClient(httpClient *http.Client, baseURL, userAgent string, logger *zap.Logger) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &APIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		logger:     logger,
	}
}

func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// DoRequest issues one attempt; there is no retry. params are merged into the
// query string of rawURL when given.
func (c *APIClient) DoRequest(ctx context.Context, rawURL string, params url.Values, timeout time.Duration) ([]byte, error) {
	reqURL, err := withParams(rawURL, params)
	if err != nil {
		return nil, errors.NewAPIError("invalid request URL", 0, rawURL, nil).WithCause(err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewAPIError("failed to build request", 0, reqURL, nil).WithCause(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAPIError("HTTP request failed", 0, reqURL, nil).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAPIError("failed to read response body", resp.StatusCode, reqURL, nil).WithCause(err)
	}

	c.logger.Debug("Rutube request completed",
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewAPIError(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode, reqURL, map[string]any{
			"body": util.TruncateString(string(body), constants.APIConfig.MaxErrorBody),
		})
	}

	return body, nil
}

func getJSON(ctx context.Context, r Requester, rawURL string, params url.Values, timeout time.Duration, dest any) error {
	body, err := r.DoRequest(ctx, rawURL, params, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	return nil
}

func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
