package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const defaultContentType = "application/octet-stream"

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore хранилище блобов вложений
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, name string) ([]byte, *ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

type ObjectInfo struct {
	Name        string
	Size        uint64
	ContentType string
	ModTime     time.Time
}

// JetStreamStore бакет объектов NATS JetStream
type JetStreamStore struct {
	nc     *nats.Conn
	bucket jetstream.ObjectStore
}

// OpenJetStreamStore подключается к NATS и открывает бакет, создавая его при
// первом запуске.
func OpenJetStreamStore(ctx context.Context, natsURL, bucket string) (*JetStreamStore, error) {
	nc, err := nats.Connect(natsURL, nats.Name("roomchat-media"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "roomchat media attachments",
		})
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	return &JetStreamStore{nc: nc, bucket: store}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, name string, data []byte, contentType string) (*ObjectInfo, error) {
	if contentType == "" {
		contentType = defaultContentType
	}
	meta := jetstream.ObjectMeta{
		Name:    name,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}

	info, err := s.bucket.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", name, err)
	}
	return toObjectInfo(info), nil
}

// Get сначала читает метаданные, чтобы отличить отсутствие объекта от сбоя.
func (s *JetStreamStore) Get(ctx context.Context, name string) ([]byte, *ObjectInfo, error) {
	info, err := s.bucket.GetInfo(ctx, name)
	if err != nil {
		return nil, nil, mapNotFound(name, err)
	}

	data, err := s.bucket.GetBytes(ctx, name)
	if err != nil {
		return nil, nil, mapNotFound(name, err)
	}
	return data, toObjectInfo(info), nil
}

func (s *JetStreamStore) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Delete(ctx, name); err != nil {
		return mapNotFound(name, err)
	}
	return nil
}

func (s *JetStreamStore) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

func mapNotFound(name string, err error) error {
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("object %s: %w", name, err)
}

func toObjectInfo(info *jetstream.ObjectInfo) *ObjectInfo {
	out := &ObjectInfo{
		Name:        info.Name,
		Size:        info.Size,
		ContentType: defaultContentType,
		ModTime:     info.ModTime,
	}
	if ct := info.Headers.Get("Content-Type"); ct != "" {
		out.ContentType = ct
	}
	return out
}
