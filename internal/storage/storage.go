// Package storage archives delivered output files, on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ignite/vcfbot/internal/config"
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
)

// backend stores one object under key.
type backend interface {
	put(ctx context.Context, key string, data []byte, contentType string) error
	describe() string
}

// Archive keeps a copy of every delivered output file under
// <prefix>/<session>/<yyyy>/<mm>/<dd>/<hhmmss>-<name>.
type Archive struct {
	backend backend
	prefix  string
	now     func() time.Time
}

// New creates an archive for the configured backend. Type "none" is an
// error; callers skip archiving instead.
func New(ctx context.Context, cfg config.StorageConfig) (*Archive, error) {
	switch cfg.Type {
	case "local":
		// Ensure local storage directory exists
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		return newArchive(&localBackend{dir: cfg.LocalPath}, ""), nil
	case "s3":
		b, err := newS3Backend(ctx, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, err
		}
		return newArchive(b, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("storage type %q has no archive", cfg.Type)
	}
}

func newArchive(b backend, prefix string) *Archive {
	return &Archive{backend: b, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// String names the backend for startup logs.
func (a *Archive) String() string {
	return a.backend.describe()
}

// Archive stores file for session key.
func (a *Archive) Archive(ctx context.Context, key string, file domain.OutputFile) error {
	objectKey := a.objectKey(key, file.Name)
	if err := a.backend.put(ctx, objectKey, file.Data, contentType(file.Name)); err != nil {
		return fmt.Errorf("archiving %s: %w", objectKey, err)
	}
	return nil
}

func (a *Archive) objectKey(sessionKey, name string) string {
	now := a.now().UTC()
	return path.Join(
		a.prefix,
		safeSegment(sessionKey),
		now.Format("2006/01/02"),
		now.Format("150405")+"-"+safeSegment(name),
	)
}

// safeSegment keeps one path segment, never a traversal.
func safeSegment(s string) string {
	s = path.Base(strings.ReplaceAll(s, "\\", "/"))
	if s == "." || s == "/" || s == ".." || s == "" {
		return "_"
	}
	return s
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case naming.ExtCard:
		return "text/vcard; charset=utf-8"
	case naming.ExtText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// localBackend writes objects beneath dir.
type localBackend struct {
	dir string
}

func (b *localBackend) put(_ context.Context, key string, data []byte, _ string) error {
	p := filepath.Join(b.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

func (b *localBackend) describe() string {
	return "local:" + b.dir
}
