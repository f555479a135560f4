package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrUnsupportedScheme is returned for asset URLs that are not file paths, file:// or http(s)://.
	ErrUnsupportedScheme = errors.New("unsupported asset URL scheme")

	// ErrHTTPStatus is returned when an HTTP source responds with status 400 or above.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// SelectSource picks the asset variant for a decoder policy. The compressed
// variant is only used when the policy prefers it and one is configured.
//
// Parameters:
//   - policy: the tier's decoder policy
//   - primary: the uncompressed asset location
//   - compressed: the compressed asset location, may be empty
//
// Returns:
//   - string: the location to load
func SelectSource(policy device.DecoderPolicy, primary, compressed string) string {
	if policy.PreferCompressed && compressed != "" {
		return compressed
	}
	return primary
}

// source is an opened asset location.
type source struct {
	body io.ReadCloser
	// size is the byte length of body, -1 if unknown.
	size int64
	// resolve loads resources referenced relative to the asset.
	resolve resolveFunc
}

// openSource opens a local path, file:// URL or http(s):// URL.
func openSource(ctx context.Context, client *http.Client, location string) (*source, error) {
	u, err := url.Parse(location)
	// a single-letter scheme is a Windows drive letter
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return openFile(location)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			p = "//" + u.Host + p
		}
		return openFile(filepath.FromSlash(p))
	case "http", "https":
		return openHTTP(ctx, client, u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// cacheable reports whether location is a remote source worth caching. Local files are
// always read fresh so edits to them take effect.
func cacheable(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

func openFile(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}

	size := int64(-1)
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		size = info.Size()
	}

	dir := filepath.Dir(path)
	return &source{
		body: f,
		size: size,
		resolve: func(uri string) ([]byte, error) {
			rel, err := url.PathUnescape(uri)
			if err != nil {
				rel = uri
			}
			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
			}
			return data, nil
		},
	}, nil
}

func openHTTP(ctx context.Context, client *http.Client, u *url.URL) (*source, error) {
	resp, err := get(ctx, client, u)
	if err != nil {
		return nil, err
	}

	return &source{
		body: resp.Body,
		size: resp.ContentLength,
		resolve: func(uri string) ([]byte, error) {
			ref, err := url.Parse(uri)
			if err != nil {
				return nil, fmt.Errorf("invalid buffer URI %q: %w", uri, err)
			}
			resp, err := get(ctx, client, u.ResolveReference(ref))
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		},
	}, nil
}

func get(ctx context.Context, client *http.Client, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s from %s", ErrHTTPStatus, resp.Status, u.Redacted())
	}
	return resp, nil
}

// decodeStream wraps r with a decompressor chosen by the location's extension.
func decodeStream(location string, r io.Reader) (io.ReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(stripQuery(location)))
	switch ext {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

func stripQuery(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}

// progressReader counts bytes read and reports at most once per step.
type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	step   int64
	next   int64
	report func(LoadProgress)
}

func newProgressReader(r io.Reader, total, step int64, report func(LoadProgress)) *progressReader {
	return &progressReader{r: r, total: total, step: step, next: step, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.read >= p.next {
		p.report(LoadProgress{BytesLoaded: p.read, BytesTotal: p.total})
		p.next = (p.read/p.step + 1) * p.step
	}
	return n, err
}

// done reports the final count.
func (p *progressReader) done() {
	total := p.total
	if total < 0 {
		total = p.read
	}
	p.report(LoadProgress{BytesLoaded: p.read, BytesTotal: total})
}
