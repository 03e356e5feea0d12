package firmware

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Probe attempts to read a firmware source as one specific format.
//
// A probe returns either a Source or an error. Errors should be *ParseError
// so the resolver can tell a foreign format (UnsupportedFormat) from a broken
// file of the probe's own format (Corrupted) or an unreadable one (IOFailure).
type Probe interface {
	// Name identifies the format in logs and errors
	Name() string

	// Probe reads the file at path
	Probe(ctx context.Context, path string) (Source, error)
}

// Resolver classifies firmware sources by running an ordered list of probes.
// Every probe is tried in turn until one succeeds, whatever the kind of the
// previous failure.
type Resolver struct {
	probes []Probe
}

// DefaultProbes returns the built-in probes in resolution order: the package
// format first, then the manifest envelope format.
func DefaultProbes() []Probe {
	return []Probe{PackageProbe{}, EnvelopeProbe{}}
}

// NewResolver creates a Resolver with the given probes.
// Without probes the DefaultProbes are used.
func NewResolver(probes ...Probe) *Resolver {
	if len(probes) == 0 {
		probes = DefaultProbes()
	}
	return &Resolver{probes: probes}
}

// Resolve classifies the source at uri using the default probes.
//
// Example:
//
//	src, err := firmware.Resolve(ctx, "file:///tmp/app_update.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(src.Kind())
func Resolve(ctx context.Context, uri string) (Source, error) {
	return NewResolver().Resolve(ctx, uri)
}

// Resolve classifies the source at uri. uri may be a plain path or a file://
// URL. When every probe fails the returned *ParseError carries the most
// specific kind seen (Corrupted, then IOFailure, then UnsupportedFormat) and
// wraps all probe failures.
func (r *Resolver) Resolve(ctx context.Context, uri string) (Source, error) {
	path, err := PathFromURI(uri)
	if err != nil {
		return nil, &ParseError{Kind: IOFailure, URI: uri, Err: err}
	}

	var (
		failures *multierror.Error
		kind     = UnsupportedFormat
	)
	for _, probe := range r.probes {
		if err := ctx.Err(); err != nil {
			return nil, &ParseError{Kind: IOFailure, URI: uri, Err: fmt.Errorf("cancelled: %w", err)}
		}

		src, err := probe.Probe(ctx, path)
		if err == nil {
			return src, nil
		}

		failures = multierror.Append(failures, fmt.Errorf("%s: %w", probe.Name(), err))
		if k := KindOf(err); k > kind {
			kind = k
		}
	}

	if failures == nil {
		return nil, &ParseError{Kind: UnsupportedFormat, URI: uri, Err: fmt.Errorf("no probes configured")}
	}
	return nil, &ParseError{Kind: kind, URI: uri, Err: failures.ErrorOrNil()}
}

// PathFromURI returns the local file path named by uri.
func PathFromURI(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("empty source uri")
	}
	if !strings.HasPrefix(uri, "file://") {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid source uri: %w", err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("source uri %q has no path", uri)
	}
	return u.Path, nil
}

// readSource reads a whole file, mapping failures to IOFailure.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: IOFailure, URI: path, Err: err}
	}
	return data, nil
}
