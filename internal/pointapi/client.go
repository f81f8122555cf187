package pointapi

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/pinmap/internal/metrics"
)

// Operation names used for metrics and error reporting.
const (
	OpListPoints     = "list_points"
	OpCreatePoint    = "create_point"
	OpUpdatePoint    = "update_point"
	OpDeletePoint    = "delete_point"
	OpListFavorites  = "list_favorites"
	OpAddFavorite    = "add_favorite"
	OpRemoveFavorite = "remove_favorite"
)

// DefaultTimeout bounds each remote call when the caller supplies no
// HTTP client of its own.
const DefaultTimeout = 15 * time.Second

// Point is the wire shape of a persisted point.
type Point struct {
	ID          int64   `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
}

// PointDraft is the wire shape of a point create/update payload. It carries
// no ID; the server assigns one on creation.
type PointDraft struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
}

// FavoriteEntry is the wire shape of a favorite listing row: the favorite's
// own id plus a denormalized copy of the underlying point.
type FavoriteEntry struct {
	ID    int64 `json:"id"`
	Point Point `json:"point"`
}

// serverError is the error body shape returned by the remote store.
type serverError struct {
	Message string `json:"message"`
}

// Config holds the parameters for constructing a Client.
type Config struct {
	// BaseURL is the API root; the point API lives at {BaseURL}/point and
	// the favorite API at {BaseURL}/point/favorite. Required.
	BaseURL string

	// HTTPClient is the underlying client for all calls. Optional; when nil
	// a client with DefaultTimeout and an otelhttp-instrumented transport
	// is used.
	HTTPClient *http.Client

	// Metrics receives per-call counters and durations. Optional.
	Metrics *metrics.Metrics
}

// ErrMissingBaseURL is returned by NewClient when no base URL is configured.
var ErrMissingBaseURL = errors.New("pointapi: base URL is required")

// Client wraps the remote point and favorite APIs. Every call carries the
// bearer token passed by the caller; the client holds no credential state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}, nil
}

// ListPoints fetches the caller's points. Expects status 200.
func (c *Client) ListPoints(ctx context.Context, token string) ([]Point, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/point", token, nil,
		OpListPoints, KindFetch, msgListPoints, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var points []Point
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, &RemoteError{Kind: KindFetch, Op: OpListPoints, Message: msgListPoints, Err: err}
	}
	return points, nil
}

// CreatePoint posts a new point. Expects status 201 and returns the created
// point carrying its server-assigned id.
func (c *Client) CreatePoint(ctx context.Context, token string, draft PointDraft) (Point, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/point", token, draft,
		OpCreatePoint, KindWrite, msgCreatePoint, http.StatusCreated)
	if err != nil {
		return Point{}, err
	}

	var point Point
	if err := json.Unmarshal(body, &point); err != nil {
		return Point{}, &RemoteError{Kind: KindWrite, Op: OpCreatePoint, Message: msgCreatePoint, Err: err}
	}
	return point, nil
}

// UpdatePoint puts new point data by id. Expects status 200 and returns the
// updated point.
func (c *Client) UpdatePoint(ctx context.Context, token string, id int64, draft PointDraft) (Point, error) {
	url := fmt.Sprintf("%s/point/%d", c.baseURL, id)
	body, err := c.do(ctx, http.MethodPut, url, token, draft,
		OpUpdatePoint, KindWrite, msgUpdatePoint, http.StatusOK)
	if err != nil {
		return Point{}, err
	}

	var point Point
	if err := json.Unmarshal(body, &point); err != nil {
		return Point{}, &RemoteError{Kind: KindWrite, Op: OpUpdatePoint, Message: msgUpdatePoint, Err: err}
	}
	return point, nil
}

// DeletePoint deletes a point by id. Expects status 200; no body is required.
func (c *Client) DeletePoint(ctx context.Context, token string, id int64) error {
	url := fmt.Sprintf("%s/point/%d", c.baseURL, id)
	_, err := c.do(ctx, http.MethodDelete, url, token, nil,
		OpDeletePoint, KindWrite, msgDeletePoint, http.StatusOK)
	return err
}

// ListFavorites fetches the caller's favorites in server insertion order.
// Expects status 200.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]FavoriteEntry, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/point/favorite", token, nil,
		OpListFavorites, KindFetch, msgListFavorites, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var entries []FavoriteEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &RemoteError{Kind: KindFetch, Op: OpListFavorites, Message: msgListFavorites, Err: err}
	}
	return entries, nil
}

// AddFavorite posts a favorite for the given point id. No body is sent;
// expects status 201.
func (c *Client) AddFavorite(ctx context.Context, token string, pointID int64) error {
	url := fmt.Sprintf("%s/point/favorite/%d", c.baseURL, pointID)
	_, err := c.do(ctx, http.MethodPost, url, token, nil,
		OpAddFavorite, KindWrite, msgAddFavorite, http.StatusCreated)
	return err
}

// RemoveFavorite deletes a favorite by point id. Any 2xx response counts as
// success; the remote store is tolerant about the exact status here.
func (c *Client) RemoveFavorite(ctx context.Context, token string, pointID int64) error {
	url := fmt.Sprintf("%s/point/favorite/%d", c.baseURL, pointID)
	_, err := c.do(ctx, http.MethodDelete, url, token, nil,
		OpRemoveFavorite, KindWrite, msgRemoveFavorite, 0)
	return err
}

// do performs one remote call and returns the response body on success.
// expectStatus is the single status treated as success, or 0 to accept any
// 2xx. Failures are returned as *RemoteError carrying the server message
// when one is present, else the per-operation fallback.
func (c *Client) do(ctx context.Context, method, url, token string, payload any, op string, kind Kind, fallback string, expectStatus int) ([]byte, error) {
	start := time.Now()
	body, err := c.roundTrip(ctx, method, url, token, payload, op, kind, fallback, expectStatus)
	if c.metrics != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		c.metrics.ObserveRemoteCall(op, outcome, time.Since(start).Seconds())
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, url, token string, payload any, op string, kind Kind, fallback string, expectStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteError{Kind: kind, Op: op, Message: fallback, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, &RemoteError{Kind: kind, Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: no server message to surface.
		return nil, &RemoteError{Kind: kind, Op: op, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Kind: kind, Op: op, Status: resp.StatusCode, Message: fallback, Err: err}
	}

	ok := resp.StatusCode == expectStatus
	if expectStatus == 0 {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		message := fallback
		var se serverError
		if jsonErr := json.Unmarshal(body, &se); jsonErr == nil && se.Message != "" {
			message = se.Message
		}
		return nil, &RemoteError{Kind: kind, Op: op, Status: resp.StatusCode, Message: message}
	}

	return body, nil
}
