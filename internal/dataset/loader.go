package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rewired-gh/bikeshare/internal/logger"
	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/storage"
)

// Fetcher downloads a dataset file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Source locates one CSV file: a local path, a download URL, or both.
// A downloaded file is saved to Path when Path is set.
type Source struct {
	Path string
	URL  string
}

// Loader imports CSV files into the SQLite cache and builds the Dataset from it.
type Loader struct {
	store   *storage.Storage
	fetcher Fetcher
	sources map[models.Granularity]Source
}

// NewLoader creates a Loader. fetcher may be nil when no Source has a URL.
func NewLoader(store *storage.Storage, fetcher Fetcher, hourly, daily Source) *Loader {
	return &Loader{
		store:   store,
		fetcher: fetcher,
		sources: map[models.Granularity]Source{
			models.Hourly: hourly,
			models.Daily:  daily,
		},
	}
}

// Import parses the CSV of granularity g and replaces the cached records.
func (l *Loader) Import(ctx context.Context, g models.Granularity) (*storage.ImportRun, error) {
	data, origin, err := l.read(ctx, g)
	if err != nil {
		return nil, err
	}

	records, result, err := ParseCSV(bytes.NewReader(data), g)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", origin, err)
	}
	if result.Failed > 0 {
		logger.Warn("Skipped %d of %d rows in %s (first: %v)", result.Failed, result.Total, origin, firstError(result))
	}

	if err := l.store.ReplaceRecords(ctx, g, records); err != nil {
		return nil, err
	}
	run, err := l.store.AddImport(ctx, g, origin, len(records), result.Failed)
	if err != nil {
		return nil, err
	}
	logger.Info("Imported %d %s records from %s (import %s)", len(records), g, origin, run.ID)
	return run, nil
}

// ImportAll imports both granularities.
func (l *Loader) ImportAll(ctx context.Context) error {
	for _, g := range []models.Granularity{models.Hourly, models.Daily} {
		if _, err := l.Import(ctx, g); err != nil {
			return fmt.Errorf("%s import failed: %w", g, err)
		}
	}
	return nil
}

// Load returns the dataset from the cache, importing any granularity that
// has never been imported. It is the LoadFunc handed to a Provider.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	sets := make(map[models.Granularity][]models.Record, 2)
	for _, g := range []models.Granularity{models.Hourly, models.Daily} {
		n, err := l.store.CountRecords(ctx, g)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			logger.Info("No cached %s records, importing", g)
			if _, err := l.Import(ctx, g); err != nil {
				return nil, fmt.Errorf("%s import failed: %w", g, err)
			}
		}

		records, err := l.store.LoadRecords(ctx, g)
		if err != nil {
			return nil, err
		}
		sets[g] = records
		logger.Debug("Loaded %d %s records", len(records), g)
	}
	return New(sets[models.Hourly], sets[models.Daily]), nil
}

func (l *Loader) read(ctx context.Context, g models.Granularity) ([]byte, string, error) {
	src := l.sources[g]

	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err == nil {
			return data, src.Path, nil
		}
		if !errors.Is(err, os.ErrNotExist) || src.URL == "" {
			return nil, "", fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
	}

	if src.URL == "" || l.fetcher == nil {
		return nil, "", fmt.Errorf("no source configured for %s dataset", g)
	}

	logger.Info("Downloading %s dataset from %s", g, src.URL)
	data, err := l.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", src.URL, err)
	}

	if src.Path != "" {
		if err := saveFile(src.Path, data); err != nil {
			logger.Warn("Failed to save downloaded dataset to %s: %v", src.Path, err)
		}
	}
	return data, src.URL, nil
}

// saveFile writes through a temp file and renames it into place.
func saveFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func firstError(r LoadResult) string {
	if len(r.Errors) == 0 {
		return "none"
	}
	return r.Errors[0]
}
