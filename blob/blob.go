// ABOUTME: Blob Store for listing images, persisted in a BadgerDB directory
// ABOUTME: Put stores bytes under PostImage/ without clobbering other images and returns the URL
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

// ImagePrefix is the folder every listing image is written under.
const ImagePrefix = "PostImage"

var ErrNotFound = errors.New("blob not found")

// Store is the put-and-get-URL contract the upload pipeline depends on.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Object is a stored blob with its content type.
type Object struct {
	ContentType string
	Data        []byte
}

// BadgerStore keeps blobs in BadgerDB and serves them under baseURL.
type BadgerStore struct {
	db      *badger.DB
	baseURL string
}

// Open opens (or creates) a blob directory. An empty dir opens an in-memory store.
func Open(dir, baseURL string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	return &BadgerStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// ImagePath is PostImage/{name}.
func ImagePath(name string) string {
	return ImagePrefix + "/" + name
}

func dataKey(path string) []byte { return []byte("data/" + path) }
func typeKey(path string) []byte { return []byte("type/" + path) }

// maxNameAttempts bounds the suffixes tried for a taken name.
const maxNameAttempts = 1000

// Put writes data at PostImage/{name} and returns its URL. When that name
// already holds different bytes the blob is stored as name-1.ext, name-2.ext
// and so on. Putting identical bytes again reuses the existing path.
func (s *BadgerStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	for {
		path, err := s.put(name, contentType, data)
		if errors.Is(err, badger.ErrConflict) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", err
		}
		return s.URL(path), nil
	}
}

func (s *BadgerStore) put(name, contentType string, data []byte) (string, error) {
	var path string
	err := s.db.Update(func(txn *badger.Txn) error {
		for i := 0; i < maxNameAttempts; i++ {
			candidate := ImagePath(suffixed(name, i))
			item, err := txn.Get(dataKey(candidate))
			if errors.Is(err, badger.ErrKeyNotFound) {
				path = candidate
				if err := txn.Set(dataKey(path), data); err != nil {
					return err
				}
				return txn.Set(typeKey(path), []byte(contentType))
			}
			if err != nil {
				return err
			}
			existing, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if bytes.Equal(existing, data) {
				path = candidate
				return txn.Set(typeKey(path), []byte(contentType))
			}
		}
		return fmt.Errorf("no free name for %s", name)
	})
	if errors.Is(err, badger.ErrConflict) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", ImagePath(name), err)
	}
	return path, nil
}

// suffixed returns name for i == 0, else name with -i before the extension.
func suffixed(name string, i int) string {
	if i == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i, ext)
}

// URL is the download URL for a stored path.
func (s *BadgerStore) URL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

// Get reads the blob stored at path (e.g. PostImage/front.jpg).
func (s *BadgerStore) Get(ctx context.Context, path string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obj Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(path))
		if err != nil {
			return err
		}
		if obj.Data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(typeKey(path))
		if err != nil {
			return err
		}
		ct, err := item.ValueCopy(nil)
		obj.ContentType = string(ct)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &obj, nil
}
