package store

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Drivers accepted by Open.
const (
	DriverNone = "none"
	DriverFile = "file"
	DriverREST = "rest"
)

// Options selects and configures a backend.
type Options struct {
	Driver  string
	URL     string // rest: project base URL
	APIKey  string // rest: anon or service key
	Table   string // rest: target table
	Path    string // file: results file
	File    FileOptions
	Timeout time.Duration // rest: HTTP client timeout
}

// Open returns the backend named by opts.Driver. Callers should close the
// result if it implements io.Closer.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverNone:
		return Discard{}, nil
	case DriverFile:
		if opts.Path == "" {
			return nil, errors.New("file store: path is required")
		}
		return NewFileStore(opts.Path, opts.File), nil
	case DriverREST:
		if opts.URL == "" {
			return nil, errors.New("rest store: url is required")
		}
		client := &http.Client{Timeout: opts.Timeout}
		return NewRESTStore(opts.URL, opts.APIKey, opts.Table, client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
