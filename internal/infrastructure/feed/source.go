package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/simplespend/backend/internal/domain"
)

// HTTPSource is a store feed served over HTTP
type HTTPSource struct {
	name   string
	url    string
	client *Client
}

// NewHTTPSource creates a source fetching url through client
func NewHTTPSource(name, url string, client *Client) *HTTPSource {
	return &HTTPSource{name: name, url: url, client: client}
}

// Name returns the source name
func (s *HTTPSource) Name() string { return s.name }

// Fetch downloads the export
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.client.Fetch(ctx, s.url)
}

// FileSource is an export stored on local disk
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file name
func (s *FileSource) Name() string { return filepath.Base(s.path) }

// Fetch reads the file
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	return data, nil
}

// NewSources builds sources from configured locations. http(s) URLs become
// HTTP sources named after their host and path; anything else is a file path.
func NewSources(locations []string, client *Client) []domain.CatalogSource {
	sources := make([]domain.CatalogSource, 0, len(locations))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
			name := strings.TrimPrefix(strings.TrimPrefix(loc, "https://"), "http://")
			sources = append(sources, NewHTTPSource(name, loc, client))
			continue
		}
		sources = append(sources, NewFileSource(loc))
	}
	return sources
}
