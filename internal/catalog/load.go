package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/theirongolddev/smartsaver/internal/logging"
)

//go:embed default_benefits.json
var defaultDocument []byte

// Source selects where the catalog document comes from. Path wins over URL;
// with neither set the embedded document is used.
type Source struct {
	Path string
	URL  string
}

// Describe names the source for status output.
func (s Source) Describe() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	default:
		return "embedded"
	}
}

// Read returns the raw document for src.
func Read(ctx context.Context, src Source, f *Fetcher) ([]byte, error) {
	switch {
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog: reading %s: %w", src.Path, err)
		}
		return data, nil
	case src.URL != "":
		if f == nil {
			f = NewFetcher(nil)
		}
		return f.Fetch(ctx, src.URL)
	default:
		return defaultDocument, nil
	}
}

// Load reads and parses the catalog for src. It never fails: any error is
// logged and an empty catalog is returned, so new cards simply start with no
// benefits.
func Load(ctx context.Context, src Source, f *Fetcher, opts ...Option) *Catalog {
	data, err := Read(ctx, src, f)
	if err != nil {
		logging.Warnf("could not load default benefits from %s: %v", src.Describe(), err)
		return Empty(opts...)
	}
	c, err := Parse(data, opts...)
	if err != nil {
		logging.Warnf("could not parse default benefits from %s: %v", src.Describe(), err)
		return Empty(opts...)
	}
	logging.Debugf("loaded %d catalog entries from %s", c.Len(), src.Describe())
	return c
}
