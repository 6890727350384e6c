package response

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/snksoft/crc"
	"golang.org/x/time/rate"
)

// crcTable checks archive integrity; the mirrors publish a CRC-64/ECMA
// sidecar next to each dataset.
var crcTable = crc.NewTable(crc.CRC64ECMA)

// Fetcher mirrors versioned calibration archives from a remote server into
// a local directory, with retry and a politeness rate limit.  The archive
// servers are not built for bulk traffic, so fetches are limited to one
// every few seconds and failures back off exponentially rather than
// hammering the mirror.
type Fetcher struct {
	// BaseURL is the remote directory holding the archives.
	BaseURL string

	// Dir is the local directory to populate.
	Dir string

	// Client is the HTTP client; http.DefaultClient if nil.
	Client *http.Client

	limiter *rate.Limiter
}

// NewFetcher returns a fetcher over the given mirror and local directory.
func NewFetcher(baseURL, dir string) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Dir:     dir,
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) get(url string) ([]byte, error) {
	if err := f.limiter.Wait(context.Background()); err != nil {
		return nil, err
	}
	var body []byte
	op := func() error {
		resp, err := f.client().Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: %s", url, resp.Status)
		}
		body, err = ioutil.ReadAll(resp.Body)
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     250 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      time.Minute,
		Clock:               backoff.SystemClock})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchVersion downloads the archive for a dataset version, verifies it
// against the mirror's CRC sidecar, and writes it into the local directory.
// It returns the local path.
func (f *Fetcher) FetchVersion(version int) (string, error) {
	fn, ok := versionFiles[version]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	body, err := f.get(f.BaseURL + "/" + fn)
	if err != nil {
		return "", &ConfigurationError{Source: fn, Err: err}
	}
	sidecar, err := f.get(f.BaseURL + "/" + fn + ".crc")
	if err != nil {
		return "", &ConfigurationError{Source: fn + ".crc", Err: err}
	}
	want, err := strconv.ParseUint(strings.TrimSpace(string(sidecar)), 10, 64)
	if err != nil {
		return "", &ConfigurationError{Source: fn + ".crc", Err: err}
	}
	got := crcTable.CalculateCRC(body)
	if got != want {
		return "", &ConfigurationError{
			Source: fn,
			Err:    fmt.Errorf("CRC mismatch, got %d want %d", got, want)}
	}
	// parse before persisting so a corrupt mirror never poisons the
	// local archive dir
	if _, err := Parse(body, fn); err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.Dir, 0777); err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, fn)
	if err := ioutil.WriteFile(path, body, 0666); err != nil {
		return "", err
	}
	return path, nil
}

// Ensure makes sure the archive for a version exists locally, fetching it if
// missing, and returns its path.
func (f *Fetcher) Ensure(version int) (string, error) {
	fn, ok := versionFiles[version]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	path := filepath.Join(f.Dir, fn)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return f.FetchVersion(version)
}
