package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// HTTPStorage keeps the document in a remote slot addressed by a URL.
// GET reads the document and its ETag; PUT replaces it, sending the ETag in
// If-Match (or If-None-Match: * if the slot was empty) so the server can
// reject writes based on a stale read with 409 Conflict or 412
// Precondition Failed. Both are reported as ConflictError.
type HTTPStorage struct {
	conflictClassifier

	url    *url.URL
	client *retryablehttp.Client
	opts   storageOptions
}

var _ domain.Backend = (*HTTPStorage)(nil)

// NewHTTPStorage creates a backend for the slot at rawURL
func NewHTTPStorage(rawURL string, options ...StorageOption) (*HTTPStorage, error) {
	if rawURL == "" {
		return nil, domain.NewArgumentError("must provide the slot URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.NewArgumentError("the provided slot URL is invalid: %s", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, domain.NewArgumentError("the provided slot URL is invalid: %s", rawURL)
	}

	opts := applyOptions(options)
	client := retryablehttp.NewClient()
	client.RetryMax = opts.httpRetries
	client.Logger = opts.logger

	return &HTTPStorage{
		url:    u,
		client: client,
		opts:   opts,
	}, nil
}

func (s *HTTPStorage) httpRequest(ctx context.Context, method string, data []byte, headers map[string]string, what string) (*http.Response, error) {
	var body interface{}
	if len(data) > 0 {
		body = data
	}

	s.opts.logger.Debug("executing slot request", "what", what, "method", method)

	req, err := retryablehttp.NewRequestWithContext(ctx, method, s.url.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to make %s HTTP request: %w", what, err)
	}
	for k, v := range s.opts.httpHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if len(data) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.Do(req)
}

func (s *HTTPStorage) Read(ctx context.Context) (*domain.Document, error) {
	resp, err := s.httpRequest(ctx, http.MethodGet, nil, nil, "read")
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Handled after
	case http.StatusNoContent, http.StatusNotFound:
		return s.opts.emptyDocument(), nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("slot endpoint requires auth")
	case http.StatusForbidden:
		return nil, fmt.Errorf("slot endpoint rejected credentials")
	default:
		return nil, fmt.Errorf("unexpected HTTP response code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}

	var doc *domain.Document
	if len(data) == 0 {
		doc = s.opts.emptyDocument()
	} else if doc, err = s.opts.codec.Decode(data); err != nil {
		return nil, err
	}
	doc.Revision = resp.Header.Get("ETag")
	return doc, nil
}

func (s *HTTPStorage) Write(ctx context.Context, doc *domain.Document) error {
	data, err := s.opts.codec.Encode(doc)
	if err != nil {
		return err
	}

	headers := map[string]string{}
	if !s.opts.force {
		if doc.Revision != "" {
			headers["If-Match"] = doc.Revision
		} else {
			headers["If-None-Match"] = "*"
		}
	}

	resp, err := s.httpRequest(ctx, http.MethodPut, data, headers, "write")
	if err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict, http.StatusPreconditionFailed:
		return &domain.ConflictError{
			Message: fmt.Sprintf("slot was modified since revision %q (HTTP %d)", doc.Revision, resp.StatusCode),
		}
	case http.StatusUnauthorized:
		return fmt.Errorf("slot endpoint requires auth")
	case http.StatusForbidden:
		return fmt.Errorf("slot endpoint rejected credentials")
	default:
		return fmt.Errorf("unexpected HTTP response code %d", resp.StatusCode)
	}
}
