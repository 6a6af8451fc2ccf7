package transcoder

import (
	"bytes"
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

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/singleflight"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

// ErrTranscoderUnavailable indicates the remote transcoding service could not
// produce a session within the configured grace period.
var ErrTranscoderUnavailable = errors.New("transcoder unavailable")

// Service is the client for the remote transcoding/session service. It owns
// nothing: sessions live on the remote side and expire there on their own.
type Service struct {
	baseURL  string
	timeout  time.Duration
	attempts uint
	httpc    *http.Client

	sf singleflight.Group
}

func NewService(baseURL string, timeoutSec, retryAttempts int) *Service {
	if timeoutSec <= 0 {
		timeoutSec = 15
	}
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &Service{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  time.Duration(timeoutSec) * time.Second,
		attempts: uint(retryAttempts),
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

// CreateSession asks the transcoder for a session producing an adaptive
// manifest for (itemID, quality). Concurrent callers requesting the same pair
// share a single remote request. Transient upstream failures are retried with
// backoff inside the configured grace period.
func (s *Service) CreateSession(ctx context.Context, itemID string, quality models.QualityLevel) (*models.TranscodeSession, error) {
	key := itemID + "|" + string(quality)
	v, err, shared := s.sf.Do(key, func() (interface{}, error) {
		return s.createSession(ctx, itemID, quality)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("[transcoder] create session shared in-flight result item=%s quality=%s", itemID, quality)
	}
	return v.(*models.TranscodeSession), nil
}

func (s *Service) createSession(ctx context.Context, itemID string, quality models.QualityLevel) (*models.TranscodeSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"itemId":  itemID,
		"quality": string(quality),
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	start := time.Now()
	sess, err := retry.DoWithData(func() (*models.TranscodeSession, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/sessions", bytes.NewReader(payload))
		if err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("build session request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscoderUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("%w: %s %s", ErrTranscoderUnavailable, resp.Status, strings.TrimSpace(string(body)))
			if !retryableStatus(resp.StatusCode) {
				return nil, retry.Unrecoverable(err)
			}
			return nil, err
		}

		var out struct {
			SessionID   string `json:"sessionId"`
			ManifestURL string `json:"manifestUrl"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("decode session response: %w", err))
		}
		if out.SessionID == "" || out.ManifestURL == "" {
			return nil, retry.Unrecoverable(fmt.Errorf("%w: incomplete session response", ErrTranscoderUnavailable))
		}
		return &models.TranscodeSession{ID: out.SessionID, ManifestURL: out.ManifestURL}, nil
	},
		retry.Attempts(s.attempts),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[transcoder] create session failed item=%s quality=%s after %v: %v", itemID, quality, time.Since(start), err)
		return nil, err
	}
	log.Printf("[transcoder] create session ok item=%s quality=%s session=%s (took %v)", itemID, quality, sess.ID, time.Since(start))
	return sess, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// KeepAlive extends the service-side lifetime of a transcode session.
func (s *Service) KeepAlive(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/api/sessions/%s/keepalive", s.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build keepalive request: %w", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTranscoderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: keepalive %s", ErrTranscoderUnavailable, resp.Status)
	}
	return nil
}

// Release tells the service the session is no longer referenced. Best effort:
// the service expires idle sessions on its own, so failures are only logged
// by callers.
func (s *Service) Release(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/api/sessions/%s", s.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build release request: %w", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTranscoderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: release %s", ErrTranscoderUnavailable, resp.Status)
	}
	return nil
}
