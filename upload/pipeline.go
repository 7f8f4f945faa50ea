// ABOUTME: Image upload pipeline turning local files into Blob Store URLs
// ABOUTME: Local previews are synchronous; commits run in parallel and fail as a batch
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/blob"
	"github.com/harperreed/rentdesk/models"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoName = errors.New("image has no file name")
	ErrEmpty  = errors.New("image file is empty")
)

// File is a locally selected image.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Pipeline uploads pending images through a Blob Store.
type Pipeline struct {
	store  blob.Store
	logger *log.Logger
}

func New(store blob.Store, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{store: store, logger: logger}
}

// Prepare builds pending entries with data: preview URLs, in input order.
func (p *Pipeline) Prepare(files []File) ([]models.PendingImage, error) {
	pending := make([]models.PendingImage, 0, len(files))
	for _, f := range files {
		if f.Name == "" {
			return nil, ErrNoName
		}
		if len(f.Data) == 0 {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrEmpty)
		}
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		pending = append(pending, models.PendingImage{
			Name:        f.Name,
			ContentType: ct,
			Data:        f.Data,
			PreviewURL:  "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		})
	}
	return pending, nil
}

// Commit uploads every entry concurrently. The result is indexed by input
// position; any failed upload fails the whole batch with *models.UploadError.
func (p *Pipeline) Commit(ctx context.Context, pending []models.PendingImage) ([]models.PersistedImage, error) {
	urls := make([]models.PersistedImage, len(pending))
	g, gctx := errgroup.WithContext(ctx)

	for i, img := range pending {
		i, img := i, img
		g.Go(func() error {
			u, err := p.store.Put(gctx, img.Name, img.ContentType, img.Data)
			if err != nil {
				return &models.UploadError{Name: img.Name, Err: err}
			}
			urls[i] = models.PersistedImage{URL: u}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Error("image upload failed", "count", len(pending), "err", err)
		return nil, err
	}
	p.logger.Debug("images uploaded", "count", len(pending))
	return urls, nil
}

// Resolve commits the pending entries of images and returns the full
// sequence with each pending entry replaced in place by its URL.
func (p *Pipeline) Resolve(ctx context.Context, images []models.ListingImage) ([]models.PersistedImage, error) {
	var pending []models.PendingImage
	var slots []int
	for i, img := range images {
		if pi, ok := img.(models.PendingImage); ok {
			pending = append(pending, pi)
			slots = append(slots, i)
		}
	}

	var committed []models.PersistedImage
	if len(pending) > 0 {
		var err error
		if committed, err = p.Commit(ctx, pending); err != nil {
			return nil, err
		}
	}

	out := make([]models.PersistedImage, len(images))
	next := 0
	for i, img := range images {
		switch v := img.(type) {
		case models.PersistedImage:
			out[i] = v
		case models.PendingImage:
			out[slots[next]] = committed[next]
			next++
		default:
			return nil, fmt.Errorf("unknown image entry %T", img)
		}
	}
	return out, nil
}

// LoadFiles reads image files from disk.
func LoadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		files = append(files, File{
			Name:        filepath.Base(path),
			ContentType: http.DetectContentType(data),
			Data:        data,
		})
	}
	return files, nil
}
