package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Result описание сохранённого блоба
type Result struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type Uploader struct {
	store     ObjectStore
	publicURL string
}

// NewUploader store может быть nil: тогда любая загрузка неуспешна.
func NewUploader(store ObjectStore, publicURL string) *Uploader {
	return &Uploader{store: store, publicURL: strings.TrimRight(publicURL, "/")}
}

// Store переносит локальный файл в хранилище. Любая ошибка даёт nil, локальный
// файл удаляется в обоих случаях.
func (u *Uploader) Store(ctx context.Context, localPath, name, contentType string) *Result {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("module", "media").Str("path", localPath).Msg("remove temp file")
		}
	}()

	if localPath == "" || u.store == nil {
		return nil
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		log.Error().Err(err).Str("module", "media").Msg("read upload")
		return nil
	}

	if name == "" {
		name = filepath.Base(localPath)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	info, err := u.store.Put(ctx, objectName(id, name), data, contentType)
	if err != nil {
		log.Error().Err(err).Str("module", "media").Str("name", name).Msg("store upload")
		return nil
	}

	return &Result{
		ID:   id,
		URL:  fmt.Sprintf("%s/media/%s/%s", u.publicURL, id, url.PathEscape(name)),
		Type: contentType,
		Name: name,
		Size: int64(info.Size),
	}
}

// Open читает блоб по id и имени из URL.
func (u *Uploader) Open(ctx context.Context, id, name string) ([]byte, *ObjectInfo, error) {
	if u.store == nil {
		return nil, nil, ErrObjectNotFound
	}
	return u.store.Get(ctx, objectName(id, name))
}

func objectName(id, name string) string {
	return id + "/" + name
}
