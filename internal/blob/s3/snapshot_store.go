package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// DefaultMultipartThreshold is the body size above which Save switches to a
// multipart upload.
const DefaultMultipartThreshold = 16 * 1024 * 1024

// SnapshotStore keeps the snapshot as a single object.
type SnapshotStore struct {
	reader    domain.BlobReader
	writer    domain.BlobWriter
	bucket    string
	key       string
	threshold int64
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore stores the snapshot under key in c's bucket. A threshold
// of zero selects DefaultMultipartThreshold.
func NewSnapshotStore(c *Client, key string, threshold int64) *SnapshotStore {
	return newSnapshotStore(NewReader(c), NewWriter(c), c.Bucket(), key, threshold)
}

func newSnapshotStore(r domain.BlobReader, w domain.BlobWriter, bucket, key string, threshold int64) *SnapshotStore {
	if threshold <= 0 {
		threshold = DefaultMultipartThreshold
	}
	return &SnapshotStore{reader: r, writer: w, bucket: bucket, key: key, threshold: threshold}
}

// Save overwrites the snapshot object.
func (s *SnapshotStore) Save(ctx context.Context, body []byte) error {
	var err error
	if int64(len(body)) > s.threshold {
		err = s.writer.PutMultipart(ctx, s.key, bytes.NewReader(body), MinPartSize)
	} else {
		err = s.writer.Put(ctx, s.key, bytes.NewReader(body), "application/json")
	}
	if err != nil {
		return fmt.Errorf("s3blob: save snapshot: %w", err)
	}
	return nil
}

// Load downloads the snapshot object. A missing object yields
// domain.ErrNotFound.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	rc, err := s.reader.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load snapshot: %w", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load snapshot: read %s: %w", s.key, err)
	}
	return body, nil
}

// Exists reports whether the snapshot object has been written.
func (s *SnapshotStore) Exists(ctx context.Context) (bool, error) {
	return s.reader.Exists(ctx, s.key)
}

// Location returns the object URL.
func (s *SnapshotStore) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}
