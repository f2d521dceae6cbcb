// Package client is a typed HTTP client for the Depenados API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer. Message is the server's {"error"} text when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(b))
		if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Members

func (c *Client) ListMembers(ctx context.Context) ([]models.Member, error) {
	var out []models.Member
	err := c.do(ctx, http.MethodGet, "/api/members", nil, nil, &out)
	return out, err
}

func (c *Client) GetMember(ctx context.Context, id string) (*models.MemberDetail, error) {
	var out models.MemberDetail
	if err := c.do(ctx, http.MethodGet, "/api/members/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMember(ctx context.Context, in models.MemberInput) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPost, "/api/members", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMember(ctx context.Context, id string, in models.MemberInput) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPut, "/api/members/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/members/"+url.PathEscape(id), nil, nil, nil)
}

// Events

// EventFilter maps onto the list query string. Upcoming overrides Status server-side.
type EventFilter struct {
	Status   string
	Upcoming bool
}

func (f EventFilter) values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Upcoming {
		v.Set("upcoming", "true")
	}
	return v
}

func (c *Client) ListEvents(ctx context.Context, f EventFilter) ([]models.EventListItem, error) {
	var out []models.EventListItem
	err := c.do(ctx, http.MethodGet, "/api/events", f.values(), nil, &out)
	return out, err
}

func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var out models.Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	var out models.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error) {
	var out models.Event
	if err := c.do(ctx, http.MethodPut, "/api/events/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil, nil)
}

// Stories

type StoryFilter struct {
	Featured bool
	Search   string
}

func (f StoryFilter) values() url.Values {
	v := url.Values{}
	if f.Featured {
		v.Set("featured", "true")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

func (c *Client) ListStories(ctx context.Context, f StoryFilter) ([]models.Story, error) {
	var out []models.Story
	err := c.do(ctx, http.MethodGet, "/api/stories", f.values(), nil, &out)
	return out, err
}

func (c *Client) GetStory(ctx context.Context, id string) (*models.Story, error) {
	var out models.Story
	if err := c.do(ctx, http.MethodGet, "/api/stories/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateStory(ctx context.Context, in models.StoryInput) (*models.Story, error) {
	var out models.Story
	if err := c.do(ctx, http.MethodPost, "/api/stories", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStory(ctx context.Context, id string, in models.StoryInput) (*models.Story, error) {
	var out models.Story
	if err := c.do(ctx, http.MethodPut, "/api/stories/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/stories/"+url.PathEscape(id), nil, nil, nil)
}

// Counters

func (c *Client) GetCounters(ctx context.Context) (*models.Counter, error) {
	var out models.Counter
	if err := c.do(ctx, http.MethodGet, "/api/counters", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchCounter moves one tally by one; action is increment or decrement.
func (c *Client) PatchCounter(ctx context.Context, counterType, action string) (*models.Counter, error) {
	var out models.Counter
	body := models.CounterPatch{Type: counterType, Action: action}
	if err := c.do(ctx, http.MethodPatch, "/api/counters", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PutCounters(ctx context.Context, v models.CounterValues) (*models.Counter, error) {
	var out models.Counter
	if err := c.do(ctx, http.MethodPut, "/api/counters", nil, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Uploads

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload posts files as repeated "files" parts of one multipart body.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (*models.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="files"; filename=`+strconv.Quote(f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		hdr.Set("Content-Type", ct)
		w, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("create part: %w", err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out models.UploadResponse
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
