// Package integration handles external service interactions
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RequestIDHeader is set on every outgoing request
const RequestIDHeader = "X-Request-ID"

// OrphanageAPI is the contract the screens rely on
type OrphanageAPI interface {
	ListOrphanages(ctx context.Context) ([]entities.Orphanage, error)
	GetOrphanage(ctx context.Context, id int64) (*entities.Orphanage, error)
	CreateOrphanage(ctx context.Context, payload *CreatePayload) error
}

// StatusError reports a non-2xx answer from the API
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code: %s", e.Op, e.Status)
}

// HTTPOrphanageAPI talks to the orphanage REST service.
// It never retries, caches or deduplicates requests.
type HTTPOrphanageAPI struct {
	baseURL *url.URL
	client  *http.Client
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// NewHTTPOrphanageAPI creates a client for baseURL. A zero timeout waits indefinitely.
func NewHTTPOrphanageAPI(baseURL string, timeout time.Duration, m *metrics.Metrics, log *zap.SugaredLogger) (*HTTPOrphanageAPI, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse API base URL %q", baseURL)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HTTPOrphanageAPI{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		log:     log,
	}, nil
}

// ListOrphanages fetches every orphanage
func (a *HTTPOrphanageAPI) ListOrphanages(ctx context.Context) ([]entities.Orphanage, error) {
	var out []entities.Orphanage
	if err := a.getJSON(ctx, "list", "orphanages", &out); err != nil {
		return nil, err
	}
	a.log.Debugf("Fetched %d orphanages", len(out))
	return out, nil
}

// GetOrphanage fetches a single orphanage by id
func (a *HTTPOrphanageAPI) GetOrphanage(ctx context.Context, id int64) (*entities.Orphanage, error) {
	var out entities.Orphanage
	if err := a.getJSON(ctx, "get", "orphanages/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrphanage posts the multipart payload. The response body is ignored.
func (a *HTTPOrphanageAPI) CreateOrphanage(ctx context.Context, payload *CreatePayload) error {
	if payload == nil {
		return errors.New("create: nil payload")
	}
	req, err := a.newRequest(ctx, http.MethodPost, "orphanages", payload.Body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", payload.ContentType)

	res, err := a.do(req, "create")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (a *HTTPOrphanageAPI) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := a.do(req, op)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: failed to decode response", op)
	}
	return nil
}

func (a *HTTPOrphanageAPI) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := a.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s %s request", method, path)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

// do sends the request and turns non-2xx answers into *StatusError
func (a *HTTPOrphanageAPI) do(req *http.Request, op string) (*http.Response, error) {
	started := time.Now()
	a.log.Debugf("Sending %s %s (request %s)", req.Method, req.URL, req.Header.Get(RequestIDHeader))

	res, err := a.client.Do(req)
	if err != nil {
		a.metrics.ObserveAPI(op, "error", time.Since(started))
		a.log.Warnf("Request %s %s failed: %v", req.Method, req.URL, err)
		return nil, errors.Wrapf(err, "%s: request failed", op)
	}
	a.metrics.ObserveAPI(op, strconv.Itoa(res.StatusCode), time.Since(started))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
		a.log.Warnf("Received unexpected status code for %s %s: %s", req.Method, req.URL, res.Status)
		return nil, &StatusError{Op: op, StatusCode: res.StatusCode, Status: res.Status}
	}
	return res, nil
}
