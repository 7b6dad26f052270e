// Package mediaapi provides the HTTP client for the media server REST
// API, the catalog provider behind the playback engine.
package mediaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mhilario/cassette-player-backend/internal/domain/catalog"
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

const (
	// DefaultBaseURL is the media server address in the docker-compose
	// deployment.
	DefaultBaseURL = "http://localhost:5006"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the media server REST API. It implements the
// catalog.Provider interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new media server API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mediaFile is a record in the media server's files response.
type mediaFile struct {
	ID               int    `json:"id"`
	OriginalFilename string `json:"original_filename"`
	FileType         string `json:"file_type"`
	FileExtension    string `json:"file_extension"`
	DownloadURL      string `json:"download_url"`
	Artist           string `json:"artist"`
	Album            string `json:"album"`
	ArtworkURL       string `json:"artwork_url"`
}

// radioStation is a record in the media server's radio response.
type radioStation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Genre     string `json:"genre"`
	StreamURL string `json:"stream_url"`
}

// ListTracks fetches the audio catalog.
func (c *Client) ListTracks(ctx context.Context) ([]media.Item, error) {
	return c.listFiles(ctx, "audio", media.KindAudio)
}

// ListVideos fetches the video catalog.
func (c *Client) ListVideos(ctx context.Context) ([]media.Item, error) {
	return c.listFiles(ctx, "videos", media.KindVideo)
}

func (c *Client) listFiles(ctx context.Context, fileType string, kind media.Kind) ([]media.Item, error) {
	endpoint := fmt.Sprintf("%s/api/media/files?file_type=%s", c.baseURL, url.QueryEscape(fileType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build files request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("files request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("files request returned %d", resp.StatusCode)
	}

	var files []mediaFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("failed to decode files response: %w", err)
	}

	items := make([]media.Item, 0, len(files))
	for _, f := range files {
		items = append(items, c.toItem(f, kind))
	}
	return items, nil
}

// toItem normalizes a server record into a playable item with an
// absolute source URL.
func (c *Client) toItem(f mediaFile, kind media.Kind) media.Item {
	title := f.OriginalFilename
	if idx := strings.LastIndex(title, "."); idx > 0 {
		title = title[:idx]
	}
	return media.Item{
		ID:         strconv.Itoa(f.ID),
		Title:      title,
		Artist:     f.Artist,
		Album:      f.Album,
		SourceURL:  c.baseURL + f.DownloadURL,
		Kind:       kind,
		Format:     strings.ToUpper(f.FileExtension),
		ArtworkURL: f.ArtworkURL,
	}
}

// ListStations fetches the curated radio station list. When the
// endpoint is unreachable the built-in fallback list is returned so
// the radio view never comes up empty.
func (c *Client) ListStations(ctx context.Context) ([]media.Item, error) {
	body, err := c.fetchStations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Radio endpoint unavailable, using fallback stations")
		return FallbackStations(), nil
	}

	items := make([]media.Item, 0, len(body.Stations))
	for _, s := range body.Stations {
		items = append(items, media.Item{
			ID:        s.ID,
			Title:     s.Name,
			Artist:    "Radio Stream",
			Album:     "FM",
			SourceURL: s.StreamURL,
			Kind:      media.KindAudio,
			Format:    media.FormatStream,
		})
	}
	return items, nil
}

type radioResponse struct {
	Stations []radioStation `json:"stations"`
}

func (c *Client) fetchStations(ctx context.Context) (*radioResponse, error) {
	endpoint := c.baseURL + "/api/media/radio"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build radio request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("radio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("radio request returned %d", resp.StatusCode)
	}

	var body radioResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode radio response: %w", err)
	}
	return &body, nil
}

// UploadTracks submits files through the upload endpoint, one request
// per file per the server contract. Returns the number of successful
// uploads; an error is returned only when every upload failed.
func (c *Client) UploadTracks(ctx context.Context, files []catalog.Upload) (int, error) {
	success := 0
	var lastErr error
	for _, f := range files {
		if err := c.uploadOne(ctx, f); err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("Upload failed")
			lastErr = err
			continue
		}
		success++
	}
	if success == 0 && lastErr != nil {
		return 0, lastErr
	}
	return success, nil
}

func (c *Client) uploadOne(ctx context.Context, f catalog.Upload) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(f.Data)); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := c.baseURL + "/api/media/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned %d", resp.StatusCode)
	}
	return nil
}
