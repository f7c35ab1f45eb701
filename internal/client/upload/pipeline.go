// Package upload stores a media blob before creating the record that
// references it.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/logging"
)

// BlobStore is the part of the gateway the pipeline needs.
type BlobStore interface {
	UploadBlob(ctx context.Context, b gateway.Bucket, filename string, data []byte) (string, error)
}

// Namer produces the object name for a new blob.
type Namer func() string

var now = time.Now

// TimestampNamer names blobs "<unix-millis>.<ext>". ext may carry a
// leading dot or be a file name whose extension is used; empty ext
// yields a bare timestamp.
func TimestampNamer(ext string) Namer {
	if e := filepath.Ext(ext); e != "" {
		ext = e
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return func() string {
		name := strconv.FormatInt(now().UnixMilli(), 10)
		if ext == "" {
			return name
		}
		return name + "." + ext
	}
}

// OrphanedBlobError reports a blob that was stored while the record meant
// to reference it was not. The blob is left in place.
type OrphanedBlobError struct {
	Bucket    gateway.Bucket
	Filename  string
	Reference string
	Err       error
}

func (e *OrphanedBlobError) Error() string {
	return fmt.Sprintf("blob %s/%s stored but record not created: %v", e.Bucket, e.Filename, e.Err)
}

func (e *OrphanedBlobError) Unwrap() []error {
	return []error{common.ErrOrphanedBlob, e.Err}
}

// Pipeline uploads into one bucket.
type Pipeline struct {
	blobs  BlobStore
	bucket gateway.Bucket
	logger logging.Logger
}

func New(blobs BlobStore, bucket gateway.Bucket, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Pipeline{blobs: blobs, bucket: bucket, logger: logger}
}

// Bucket returns the bucket blobs are stored in.
func (p *Pipeline) Bucket() gateway.Bucket { return p.bucket }

// Upload stores blob under a name from namer and returns its public
// reference. Errors wrap common.ErrUploadFailure.
func (p *Pipeline) Upload(ctx context.Context, blob []byte, namer Namer) (string, string, error) {
	if len(blob) == 0 {
		return "", "", fmt.Errorf("%w: empty blob", common.ErrUploadFailure)
	}
	name := namer()
	ref, err := p.blobs.UploadBlob(ctx, p.bucket, name, blob)
	if err != nil {
		return "", name, fmt.Errorf("%w: %w", common.ErrUploadFailure, err)
	}
	if ref == "" {
		return "", name, fmt.Errorf("%w: empty reference for %s", common.ErrUploadFailure, name)
	}
	return ref, name, nil
}

// UploadThenCreate uploads blob and then calls create with its reference.
// create is never called when the upload fails. When create fails after a
// successful upload the error is an *OrphanedBlobError wrapping create's
// error.
func UploadThenCreate[R any](ctx context.Context, p *Pipeline, blob []byte, namer Namer, create func(ctx context.Context, ref string) (R, error)) (R, error) {
	var zero R

	ref, name, err := p.Upload(ctx, blob, namer)
	if err != nil {
		p.logger.Warn(ctx, "blob upload failed", "bucket", p.bucket, "name", name, "error", err)
		return zero, err
	}

	rec, err := create(ctx, ref)
	if err != nil {
		p.logger.Warn(ctx, "orphaned blob", "bucket", p.bucket, "name", name, "reference", ref, "error", err)
		return zero, &OrphanedBlobError{Bucket: p.bucket, Filename: name, Reference: ref, Err: err}
	}
	return rec, nil
}

// IsOrphaned extracts an *OrphanedBlobError from err.
func IsOrphaned(err error) (*OrphanedBlobError, bool) {
	var o *OrphanedBlobError
	ok := errors.As(err, &o)
	return o, ok
}
