package compositor

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StaticLoader serves bitmaps from a fixed map. Used in tests and for
// pre-resolved assets.
type StaticLoader struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

func NewStaticLoader() *StaticLoader {
	return &StaticLoader{images: make(map[string]image.Image)}
}

func (l *StaticLoader) Add(ref string, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[ref] = img
}

func (l *StaticLoader) Load(_ context.Context, ref string) (image.Image, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if img, ok := l.images[ref]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("no bitmap registered for %q", ref)
}

// FileLoader resolves references as paths under a root directory.
type FileLoader struct {
	Root string
}

func (l *FileLoader) Load(_ context.Context, ref string) (image.Image, error) {
	// Keep references inside the root; a reference is a name, not a path.
	cleaned := filepath.Clean("/" + ref)
	path := filepath.Join(l.Root, cleaned)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bitmap %q: %w", ref, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode bitmap %q: %w", ref, err)
	}
	return img, nil
}

// HTTPLoader fetches http(s) references and delegates everything else to
// an optional fallback.
type HTTPLoader struct {
	Client   *http.Client
	Fallback interface {
		Load(ctx context.Context, ref string) (image.Image, error)
	}
}

func (l *HTTPLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if l.Fallback != nil {
			return l.Fallback.Load(ctx, ref)
		}
		return nil, fmt.Errorf("unsupported bitmap reference %q", ref)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch bitmap %q: %w", ref, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bitmap %q: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bitmap %q: status %d", ref, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode bitmap %q: %w", ref, err)
	}
	return img, nil
}
