// Package snapshotstore uploads run artifacts (captured sites, built
// sites, score reports) to S3-compatible object storage.
package snapshotstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// RoleCapture is the snapshot of the source site.
	RoleCapture = "capture"
	// RoleRedesign is the generated and built replacement site.
	RoleRedesign = "redesign"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough of the config is set to build a store.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type S3Store struct {
	cli    *minio.Client
	bucket string

	ensureOnce sync.Once
	ensureErr  error
}

func New(cfg Config) (*S3Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshotstore: client: %w", err)
	}
	return &S3Store{cli: cli, bucket: cfg.Bucket}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.cli.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = fmt.Errorf("snapshotstore: bucket check: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.cli.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.ensureErr = fmt.Errorf("snapshotstore: make bucket: %w", err)
		}
	})
	return s.ensureErr
}

// objectKey builds "runID/role/relPath" with forward slashes.
func objectKey(runID, role, relPath string) string {
	return path.Join(runID, role, filepath.ToSlash(relPath))
}

// Put uploads one object under the run's prefix.
func (s *S3Store) Put(ctx context.Context, runID, role, relPath string, content []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := objectKey(runID, role, relPath)
	_, err := s.cli.PutObject(ctx, s.bucket, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("snapshotstore: put %s: %w", key, err)
	}
	return nil
}

// UploadDir uploads every regular file under dir, keyed by its path
// relative to dir.
func (s *S3Store) UploadDir(ctx context.Context, runID, role, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("snapshotstore: read %s: %w", p, err)
		}
		return s.Put(ctx, runID, role, rel, content)
	})
}

// PutReport stores the run's score report as JSON at the prefix root.
func (s *S3Store) PutReport(ctx context.Context, runID string, report any) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshotstore: encode report: %w", err)
	}
	return s.Put(ctx, runID, "", "report.json", raw)
}

// List returns the object keys under a run's role prefix.
func (s *S3Store) List(ctx context.Context, runID, role string) ([]string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	prefix := objectKey(runID, role, "") + "/"
	prefix = strings.TrimPrefix(prefix, "/")

	var keys []string
	for obj := range s.cli.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("snapshotstore: list: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
