package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

var (
	// ErrItemNotFound indicates the library server has no item with that id.
	ErrItemNotFound = errors.New("library item not found")
	// ErrLibraryUnavailable indicates the library server could not be reached
	// or answered with a server error.
	ErrLibraryUnavailable = errors.New("library unavailable")
)

// Service is a thin client for the media-management server that owns the
// actual library. It only fetches what playback needs: item metadata and
// stream URLs.
type Service struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewService(baseURL, apiKey string, timeoutSec int) *Service {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (s *Service) SetHTTPClient(c *http.Client) {
	if c != nil {
		s.httpc = c
	}
}

// GetItem fetches a playable item's metadata by id.
func (s *Service) GetItem(ctx context.Context, itemID string) (*models.PlayableItem, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("%w: empty item id", ErrItemNotFound)
	}

	endpoint := fmt.Sprintf("%s/api/items/%s", s.baseURL, url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build item request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("ApiKey", s.apiKey)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[library] item fetch failed id=%s status=%s body=%q", itemID, resp.Status, body)
		return nil, fmt.Errorf("%w: %s", ErrLibraryUnavailable, resp.Status)
	}

	var item models.PlayableItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", itemID, err)
	}
	if item.ID == "" {
		item.ID = itemID
	}
	return &item, nil
}

// StreamURL returns the deterministic direct-play URL for an item. The media
// element cannot send headers, so the api key rides along as a query
// parameter when configured.
func (s *Service) StreamURL(itemID string) string {
	u := fmt.Sprintf("%s/api/items/%s/stream", s.baseURL, url.PathEscape(itemID))
	if s.apiKey != "" {
		u += "?apikey=" + url.QueryEscape(s.apiKey)
	}
	return u
}

// SniffMime detects the container of an item's stream from its leading
// bytes. Used when the library's file metadata does not name a container we
// know how to map.
func (s *Service) SniffMime(ctx context.Context, itemID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.StreamURL(itemID), nil)
	if err != nil {
		return "", fmt.Errorf("build sniff request: %w", err)
	}
	// mimetype reads at most sniffLimit bytes; only fetch that much.
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffLimit-1))
	if s.apiKey != "" {
		req.Header.Set("ApiKey", s.apiKey)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: %s", ErrLibraryUnavailable, resp.Status)
	}

	mt, err := mimetype.DetectReader(io.LimitReader(resp.Body, sniffLimit))
	if err != nil {
		return "", fmt.Errorf("sniff item %s: %w", itemID, err)
	}
	return mt.String(), nil
}

const sniffLimit = 3072
