package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/duongtho001/Youseo/internal/engine"
)

const (
	thumbMaxRes   = "maxresdefault.jpg"
	thumbStandard = "sddefault.jpg"
)

var errImageNotFound = errors.New("image not found")

// FetchImage downloads a reference image and returns its bytes and MIME type.
// A missing maxresdefault.jpg thumbnail falls back to sddefault.jpg.
func FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	data, mime, err := fetchImage(ctx, imageURL)
	if errors.Is(err, errImageNotFound) && strings.HasSuffix(imageURL, "/"+thumbMaxRes) {
		fallback := strings.TrimSuffix(imageURL, thumbMaxRes) + thumbStandard
		slog.Debug("thumbnail: maxres missing, trying sddefault", slog.String("url", fallback))
		return fetchImage(ctx, fallback)
	}
	return data, mime, err
}

func fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	if t := engine.Cfg.FetchTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	engine.IncrImageFetches()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("%w: %s", errImageNotFound, imageURL)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	limit := engine.Cfg.MaxImageBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("image exceeds %d bytes", limit)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", fmt.Errorf("not an image: %s", mime)
	}
	return data, mime, nil
}
