// ABOUTME: Document Store over Charm KV, synced to the charm server
// ABOUTME: Keys are full document paths and values are JSON envelopes with timestamps

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/rentdesk/docstore"
)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DocStore implements docstore.Store on a Client.
type DocStore struct {
	client *Client
	// serializes read-modify-write sequences
	mu sync.Mutex
}

// NewDocStore wraps c.
func NewDocStore(c *Client) *DocStore {
	return &DocStore{client: c}
}

func (s *DocStore) load(path string) (*envelope, error) {
	raw, err := s.client.Get([]byte(path))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && raw == nil) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &env, nil
}

func (s *DocStore) save(path string, env *envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := s.client.Set([]byte(path), raw); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (s *DocStore) Get(ctx context.Context, path string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env, err := s.load(path)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{Path: path, Data: env.Data, CreatedAt: env.CreatedAt, UpdatedAt: env.UpdatedAt}, nil
}

func (s *DocStore) Set(ctx context.Context, path string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := docstore.Encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	env := &envelope{Data: body, CreatedAt: now, UpdatedAt: now}
	if existing, err := s.load(path); err == nil {
		env.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	return s.save(path, env)
}

// Import writes doc as-is, keeping its timestamps.
func (s *DocStore) Import(ctx context.Context, doc *docstore.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc.Path, &envelope{Data: doc.Data, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt})
}

func (s *DocStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load(path)
	if err != nil {
		return err
	}
	merged, err := docstore.Merge(env.Data, fields)
	if err != nil {
		return err
	}
	env.Data = merged
	env.UpdatedAt = time.Now().UTC()
	return s.save(path, env)
}

func (s *DocStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(path); err != nil {
		return err
	}
	if err := s.client.Delete([]byte(path)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *DocStore) Add(ctx context.Context, collection string, data interface{}) (string, error) {
	id := docstore.NewID()
	if err := s.Set(ctx, docstore.Join(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.client.KeysWithPrefix(collection + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	var children []string
	for _, k := range keys {
		if docstore.IsChild(collection, k) {
			children = append(children, k)
		}
	}

	docs, err := s.fetch(children)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].Path < docs[j].Path
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// All returns every document under the root collection ordered by path.
func (s *DocStore) All(ctx context.Context) ([]*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.client.KeysWithPrefix(docstore.RootCollection + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(keys)
	return s.fetch(keys)
}

func (s *DocStore) fetch(paths []string) ([]*docstore.Document, error) {
	docs := make([]*docstore.Document, 0, len(paths))
	for _, p := range paths {
		env, err := s.load(p)
		if errors.Is(err, docstore.ErrNotFound) {
			// deleted between Keys and Get
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, &docstore.Document{Path: p, Data: env.Data, CreatedAt: env.CreatedAt, UpdatedAt: env.UpdatedAt})
	}
	return docs, nil
}
