// Package reference loads the reference config a file is validated against,
// from a local path or an HTTP(S) URL.
package reference

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thoreinstein/confkeep/internal/codec"
	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/pkg/confmap"
	"github.com/thoreinstein/confkeep/pkg/fileutil"
)

// DefaultTimeout bounds a remote fetch when no client is supplied.
const DefaultTimeout = 30 * time.Second

// Source fetches reference configs.
type Source struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient sets the client used for remote references.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource returns a Source with a DefaultTimeout client and a discard
// logger unless overridden.
func NewSource(opts ...Option) *Source {
	s := &Source{
		client: &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRemote reports whether locator is an http:// or https:// URL.
func IsRemote(locator string) bool {
	lower := strings.ToLower(locator)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch returns the reference mapping named by locator.
//
// An empty locator yields an empty mapping. URLs are fetched with GET and the
// body is always parsed as YAML. Anything else is a local file whose format
// comes from its extension. Failure to obtain the bytes is marked
// ErrReferenceUnavailable; bytes that do not parse are marked ErrFormat.
func (s *Source) Fetch(ctx context.Context, locator string) (*confmap.Mapping, error) {
	if locator == "" {
		return confmap.New(), nil
	}

	var (
		m   *confmap.Mapping
		err error
	)
	if IsRemote(locator) {
		m, err = s.fetchRemote(ctx, locator)
	} else {
		m, err = s.fetchLocal(locator)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("reference loaded", "source", logging.MaskURL(locator), "keys", m.Len())
	return m, nil
}

func (s *Source) fetchRemote(ctx context.Context, url string) (*confmap.Mapping, error) {
	shown := logging.MaskURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, unavailable(err, "building request for %s", shown)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(err, "fetching %s", shown)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(errors.Newf("server returned status %d", resp.StatusCode), "fetching %s", shown)
	}

	// Limit body size to prevent memory exhaustion
	data, err := fileutil.ReadAllWithLimit(resp.Body)
	if err != nil {
		return nil, unavailable(err, "reading %s", shown)
	}

	c, err := codec.ForFormat(string(codec.FormatYAML))
	if err != nil {
		return nil, err
	}
	m, err := c.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing reference %s", shown)
	}
	return m, nil
}

func (s *Source) fetchLocal(path string) (*confmap.Mapping, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "reference")
	}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable(err, "reference %s not found", path)
		}
		return nil, unavailable(err, "reading reference %s", path)
	}

	m, err := c.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing reference %s", path)
	}
	return m, nil
}

func unavailable(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), errors.ErrReferenceUnavailable)
}
