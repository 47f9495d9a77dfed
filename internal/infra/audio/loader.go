package audio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedSource is returned for sources that are neither paths nor http(s)/file URLs.
var ErrUnsupportedSource = errors.New("unsupported audio source")

// Loader fetches audio source bytes.
type Loader struct {
	Client  *http.Client
	Timeout time.Duration // Per-fetch timeout for remote sources (0 = none)
}

// NewLoader creates a loader with the given remote fetch timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		Client:  http.DefaultClient,
		Timeout: timeout,
	}
}

// Fetch reads the whole source into memory.
func (l *Loader) Fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || isWindowsDrive(u.Scheme) {
		return readFile(source)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		return l.fetchRemote(ctx, source)
	default:
		return nil, errors.Wrapf(ErrUnsupportedSource, "scheme %q", u.Scheme)
	}
}

func (l *Loader) fetchRemote(ctx context.Context, source string) ([]byte, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", source)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("failed to fetch %s: status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", source)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}

// isWindowsDrive reports whether a parsed scheme is really a drive letter ("C:\...").
func isWindowsDrive(scheme string) bool {
	return len(scheme) == 1
}
