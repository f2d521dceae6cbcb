// Package media talks to the external media host (a Cloudinary-compatible
// upload API). Uploaded files are stored publicly by the host; this package
// keeps no local copy.
package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PortNumber53/depenados/internal/config"
	"golang.org/x/time/rate"
)

const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceAuto  = "auto"
)

// ErrNotConfigured is returned when any of the three credentials is missing.
var ErrNotConfigured = errors.New("media host credentials are not configured")

type UploadOptions struct {
	Folder       string
	ResourceType string
}

type Result struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int64  `json:"bytes"`
}

// Uploader is the contract the upload endpoint depends on.
type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, data []byte, filename string, opts UploadOptions) (Result, error)
}

type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	folder    string

	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg config.MediaConfig, opts ...Option) *Client {
	perSecond := cfg.UploadsPerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.cloudinary.com/v1_1"
	}
	c := &Client{
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		baseURL:    base,
		folder:     cfg.Folder,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// Upload sends data to the host. Images whose response omits dimensions get
// them decoded locally.
func (c *Client) Upload(ctx context.Context, data []byte, filename string, opts UploadOptions) (Result, error) {
	if !c.Configured() {
		return Result{}, ErrNotConfigured
	}
	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = ResourceAuto
	}
	folder := opts.Folder
	if folder == "" {
		folder = c.folder
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}
	if resourceType == ResourceImage {
		params["transformation"] = "q_auto:good/f_auto"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("media: create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return Result{}, fmt.Errorf("media: write form file: %w", err)
	}
	if err := c.writeSignedFields(mw, params); err != nil {
		return Result{}, err
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("media: close multipart: %w", err)
	}

	var out Result
	if err := c.post(ctx, resourceType, "upload", mw.FormDataContentType(), &body, &out); err != nil {
		return Result{}, err
	}
	if out.Width == 0 && out.Height == 0 && resourceType != ResourceVideo {
		if w, h, ok := ImageDimensions(data); ok {
			out.Width, out.Height = w, h
		}
	}
	return out, nil
}

// Destroy removes an uploaded asset by its public identifier.
func (c *Client) Destroy(ctx context.Context, publicID, resourceType string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if resourceType == "" || resourceType == ResourceAuto {
		resourceType = ResourceImage
	}
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := c.writeSignedFields(mw, params); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("media: close multipart: %w", err)
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := c.post(ctx, resourceType, "destroy", mw.FormDataContentType(), &body, &out); err != nil {
		return err
	}
	if out.Result != "ok" {
		return fmt.Errorf("media: destroy %s: %s", publicID, out.Result)
	}
	return nil
}

func (c *Client) writeSignedFields(mw *multipart.Writer, params map[string]string) error {
	fields := map[string]string{
		"api_key":   c.apiKey,
		"signature": Signature(params, c.apiSecret),
	}
	for k, v := range params {
		fields[k] = v
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("media: write field %s: %w", k, err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, resourceType, action, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("media: rate limit: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.cloudName, resourceType, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("media: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("media: %s: %w", action, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("media: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HostError{Status: resp.StatusCode, Message: hostErrorMessage(b)}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("media: decode %s response: %w", action, err)
	}
	return nil
}

// HostError is a non-2xx answer from the media host.
type HostError struct {
	Status  int
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("media host returned %d: %s", e.Status, e.Message)
}

func hostErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// Signature signs request parameters the way the host expects: parameters
// sorted by key, joined as k=v with '&', secret appended, SHA-1 hex digest.
func Signature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}
