package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/rentdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records puts and fails for names in failOn. Delays make
// completion order differ from input order.
type fakeStore struct {
	mu     sync.Mutex
	puts   []string
	failOn map[string]bool
	delay  map[string]time.Duration
}

func (f *fakeStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if d := f.delay[name]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.puts = append(f.puts, name)
	f.mu.Unlock()
	if f.failOn[name] {
		return "", errors.New("store rejected upload")
	}
	return "https://blobs.test/PostImage/" + name, nil
}

func TestPrepareBuildsPreviews(t *testing.T) {
	p := New(&fakeStore{}, nil)

	pending, err := p.Prepare([]File{
		{Name: "a.png", ContentType: "image/png", Data: []byte("a")},
		{Name: "b.jpg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}},
	})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	assert.Equal(t, "a.png", pending[0].Name)
	assert.True(t, strings.HasPrefix(pending[0].PreviewURL, "data:image/png;base64,"))
	assert.Equal(t, "image/jpeg", pending[1].ContentType)
}

func TestPrepareRejectsInvalidFiles(t *testing.T) {
	p := New(&fakeStore{}, nil)

	_, err := p.Prepare([]File{{Name: "", Data: []byte("x")}})
	assert.ErrorIs(t, err, ErrNoName)

	_, err = p.Prepare([]File{{Name: "a.png"}})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCommitPreservesInputOrder(t *testing.T) {
	store := &fakeStore{delay: map[string]time.Duration{"first.jpg": 30 * time.Millisecond}}
	p := New(store, nil)

	urls, err := p.Commit(context.Background(), []models.PendingImage{
		{Name: "first.jpg", Data: []byte("1")},
		{Name: "second.jpg", Data: []byte("2")},
		{Name: "third.jpg", Data: []byte("3")},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.PersistedImage{
		{URL: "https://blobs.test/PostImage/first.jpg"},
		{URL: "https://blobs.test/PostImage/second.jpg"},
		{URL: "https://blobs.test/PostImage/third.jpg"},
	}, urls)
	// first.jpg finished last
	assert.Equal(t, "first.jpg", store.puts[len(store.puts)-1])
}

func TestCommitFailsWholeBatch(t *testing.T) {
	store := &fakeStore{failOn: map[string]bool{"b.jpg": true}}
	p := New(store, nil)

	urls, err := p.Commit(context.Background(), []models.PendingImage{
		{Name: "a.jpg", Data: []byte("1")},
		{Name: "b.jpg", Data: []byte("2")},
		{Name: "c.jpg", Data: []byte("3")},
	})
	require.Error(t, err)
	assert.Nil(t, urls)

	var uerr *models.UploadError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "b.jpg", uerr.Name)
}

func TestResolveReplacesPendingInPlace(t *testing.T) {
	p := New(&fakeStore{}, nil)

	out, err := p.Resolve(context.Background(), []models.ListingImage{
		models.PendingImage{Name: "new1.jpg", Data: []byte("1")},
		models.PersistedImage{URL: "https://old/1.jpg"},
		models.PendingImage{Name: "new2.jpg", Data: []byte("2")},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.PersistedImage{
		{URL: "https://blobs.test/PostImage/new1.jpg"},
		{URL: "https://old/1.jpg"},
		{URL: "https://blobs.test/PostImage/new2.jpg"},
	}, out)
}

func TestResolveWithoutPendingSkipsStore(t *testing.T) {
	store := &fakeStore{}
	p := New(store, nil)

	out, err := p.Resolve(context.Background(), []models.ListingImage{
		models.PersistedImage{URL: "https://old/1.jpg"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Empty(t, store.puts)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0600))

	files, err := LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "photo.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)

	_, err = LoadFiles([]string{filepath.Join(dir, "missing.png")})
	assert.Error(t, err)
}

func ExamplePipeline_Prepare() {
	p := New(&fakeStore{}, nil)
	pending, _ := p.Prepare([]File{{Name: "a.txt", ContentType: "text/plain", Data: []byte("hi")}})
	fmt.Println(pending[0].PreviewURL)
	// Output: data:text/plain;base64,aGk=
}
