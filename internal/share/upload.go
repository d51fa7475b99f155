// Package share publishes rendered lesson documents to a paste service
// and hands back a public link. Documents are content-addressed, so
// re-sharing an unchanged lesson reuses the same URL.
package share

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"
)

const uploadTimeout = 15 * time.Second

// Uploader posts documents to a share endpoint.
type Uploader struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// New creates an uploader for the given service base URL, e.g.
// "https://share.example.com". A nil client gets a sensible default.
func New(baseURL string, client *http.Client, log *slog.Logger) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: uploadTimeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{baseURL: baseURL, client: client, log: log}
}

// DocumentID is the hex-encoded BLAKE2b-256 digest of the document body.
// Identical content always maps to the same id.
func DocumentID(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Upload publishes body under its content id and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, body []byte, contentType string) (string, error) {
	id := DocumentID(body)
	target := fmt.Sprintf("%s/d/%s", u.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build share request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload document %s: %w", id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		// Conflict means the content already exists, which is fine for
		// a content-addressed store.
	default:
		return "", fmt.Errorf("upload document %s: unexpected status %d", id, resp.StatusCode)
	}

	u.log.Info("document shared", "id", id, "bytes", len(body))
	return target, nil
}
