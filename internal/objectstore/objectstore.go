// Package objectstore stores admin-uploaded media files and returns their public URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/muntakson/salama/internal/models"
)

var (
	// ErrNotConfigured is returned when no bucket is configured
	ErrNotConfigured = errors.New("object storage not configured")
	// ErrExtensionNotAllowed is returned for file types the catalog does not serve
	ErrExtensionNotAllowed = errors.New("file type not allowed")
)

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"mp4": true,
	"mp3": true, "wav": true, "m4a": true,
	"pdf": true,
}

// Uploader stores one file and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, kind models.UploadKind, filename string, r io.Reader) (string, error)
}

// GCS uploads to a Google Cloud Storage bucket
type GCS struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// NewGCS connects to Cloud Storage using application default credentials.
// STORAGE_EMULATOR_HOST is honoured by the client library for local runs.
func NewGCS(ctx context.Context, bucket, publicBaseURL string) (*GCS, error) {
	if bucket == "" {
		return nil, ErrNotConfigured
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("object storage initialized", "bucket", bucket, "public_base_url", publicBaseURL)
	return &GCS{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}, nil
}

// Upload writes the file under <kind>s/ and returns its public URL
func (g *GCS) Upload(ctx context.Context, kind models.UploadKind, filename string, r io.Reader) (string, error) {
	if !AllowedFile(filename) {
		return "", ErrExtensionNotAllowed
	}

	key := ObjectName(kind, filename, g.now(), uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = ContentType(filename)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close object writer: %w", err)
	}

	return PublicURL(g.publicBaseURL, g.bucket, key), nil
}

// HealthCheck verifies the bucket is reachable
func (g *GCS) HealthCheck(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	return err
}

// Close releases the storage client
func (g *GCS) Close() error {
	return g.client.Close()
}

// AllowedFile reports whether the file extension may be uploaded
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return allowedExtensions[ext]
}

// ContentType guesses a MIME type from the extension
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ObjectName builds "<kind>s/<timestamp>_<id>_<safe name>"
func ObjectName(kind models.UploadKind, filename string, now time.Time, id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%ss/%s_%s_%s", kind, now.UTC().Format("20060102_150405"), id, SecureFilename(filename))
}

// PublicURL returns the URL an object is served from
func PublicURL(publicBaseURL, bucket, key string) string {
	if publicBaseURL != "" {
		return publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename reduces a client-supplied name to a safe ASCII basename
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := filepath.Ext(name)
	stem := strings.Join(strings.Fields(strings.TrimSuffix(name, ext)), "_")
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, ""), "._")
	ext = unsafeChars.ReplaceAllString(strings.ToLower(ext), "")
	if stem == "" {
		stem = "file"
	}
	if ext == "." {
		ext = ""
	}
	return stem + ext
}
