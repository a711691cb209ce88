/*
Package inference talks to the classification backend: it uploads audio for
prediction and fetches the evaluation, dataset and overview payloads the
dashboard views display.

Every call makes exactly one attempt. Transport failures and non-2xx answers
become apperr.NetworkError carrying the base URL; undecodable or incomplete
bodies become apperr.MalformedDataError.
*/
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"pelohub/internal/apperr"
	"pelohub/internal/config"
	"pelohub/internal/log"

	"github.com/bytedance/sonic"
)

// Backend routes.
const (
	PathPredict        = "/predict/"
	PathEvaluation     = "/api/evaluation/details"
	PathDatasetSamples = "/api/dataset/eda-samples"
	PathOverview       = "/api/engine/overview"
	PathStatus         = "/status"
	PathStaticSamples  = "/static/samples/"

	maxErrorBody = 4 << 10
)

// Client calls the inference backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	models  map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. hc itself is never
// modified; a timeout option applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithModels replaces the dashboard id to backend model name mapping.
func WithModels(models map[string]string) Option {
	return func(c *Client) { c.models = models }
}

// NewClient returns a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: config.DefaultAPITimeout},
		models:  config.DefaultModels(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BackendModel maps a dashboard model id to the backend's name for it.
// Unknown ids pass through unchanged.
func (c *Client) BackendModel(id string) string {
	if name, ok := c.models[id]; ok {
		return name
	}
	return id
}

type predictResponse struct {
	Model      string             `json:"model"`
	Prediksi   string             `json:"prediksi"`
	Confidence string             `json:"confidence"`
	Detail     map[string]float64 `json:"detail_probabilitas"`
	Samples    int                `json:"durasi_audio_sample"`
}

// Predict uploads data as the multipart field "file" and classifies it with
// the model behind modelID.
func (c *Client) Predict(ctx context.Context, modelID, fileName string, data []byte) (Result, error) {
	const op = "predict"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Result{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to build upload: %w", err)
	}

	backend := c.BackendModel(modelID)
	endpoint := c.baseURL + PathPredict + url.PathEscape(backend)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Infof("Inference: predicting %q with %s (%d bytes)", fileName, backend, len(data))
	started := time.Now()
	raw, err := c.do(req, op)
	if err != nil {
		return Result{}, err
	}

	var resp predictResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return Result{}, &apperr.MalformedDataError{Field: "prediction", Err: err}
	}
	result, err := resp.toResult()
	if err != nil {
		return Result{}, err
	}
	log.Infof("Inference: %s %.1f%% (%s) in %s",
		result.Label, result.Confidence*100, result.Severity, time.Since(started).Round(time.Millisecond))
	return result, nil
}

// Raw fetches the body of a GET route such as PathEvaluation. Views use it
// together with the read-through cache, which stores bodies verbatim.
func (c *Client) Raw(ctx context.Context, route string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+route, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, strings.TrimPrefix(route, "/"))
}

// Evaluation fetches the model comparison payload.
func (c *Client) Evaluation(ctx context.Context) (*Evaluation, error) {
	raw, err := c.Raw(ctx, PathEvaluation)
	if err != nil {
		return nil, err
	}
	return DecodeEvaluation(raw)
}

// DatasetSamples fetches the exploratory-analysis samples.
func (c *Client) DatasetSamples(ctx context.Context) (DatasetSamples, error) {
	raw, err := c.Raw(ctx, PathDatasetSamples)
	if err != nil {
		return nil, err
	}
	return DecodeDatasetSamples(raw)
}

// Overview fetches the landing dashboard summary.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	raw, err := c.Raw(ctx, PathOverview)
	if err != nil {
		return nil, err
	}
	return DecodeOverview(raw)
}

// Status reports backend health.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	raw, err := c.Raw(ctx, PathStatus)
	if err != nil {
		return nil, err
	}
	var st Status
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, &apperr.MalformedDataError{Field: "status", Err: err}
	}
	if st.Status == "" {
		return nil, &apperr.MalformedDataError{Field: "status"}
	}
	return &st, nil
}

// FetchSample downloads sample audio. Relative references such as
// "/static/samples/a.wav" resolve against the base URL.
func (c *Client) FetchSample(ctx context.Context, ref string) ([]byte, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	log.Debugf("Inference: fetching sample %s", target)
	return c.do(req, "sample audio")
}

// SampleURL returns the static route for a curated sample file name.
func SampleURL(fileName string) string {
	return PathStaticSamples + path.Base(fileName)
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid sample URL %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warnf("Inference: %s failed: %v", op, err)
		return nil, &apperr.NetworkError{Op: op, BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warnf("Inference: %s answered %s", op, resp.Status)
		return nil, &apperr.NetworkError{
			Op:         op,
			BaseURL:    c.baseURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", errorDetail(detail, resp.Status)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.NetworkError{Op: op, BaseURL: c.baseURL, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// errorDetail extracts FastAPI's {"detail": ...} message when present.
func errorDetail(body []byte, status string) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := sonic.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		return fmt.Sprint(payload.Detail)
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}
