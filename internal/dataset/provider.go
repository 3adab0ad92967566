package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// Dataset is the immutable pair of hourly and daily record sets.
// Slices returned by Records are shared and must be treated as read-only.
type Dataset struct {
	hourly   []models.Record
	daily    []models.Record
	LoadedAt time.Time
}

// New wraps loaded records. The caller must not modify the slices afterwards.
func New(hourly, daily []models.Record) *Dataset {
	return &Dataset{hourly: hourly, daily: daily, LoadedAt: time.Now()}
}

// Records returns the record set of the requested granularity.
func (d *Dataset) Records(g models.Granularity) []models.Record {
	if g == models.Daily {
		return d.daily
	}
	return d.hourly
}

// LoadFunc produces the dataset once at startup.
type LoadFunc func(ctx context.Context) (*Dataset, error)

// Provider loads the dataset on first use and hands out the same instance
// afterwards. A failed load is remembered and returned to every caller.
type Provider struct {
	load LoadFunc
	once sync.Once
	ds   *Dataset
	err  error
}

// NewProvider creates a Provider around load.
func NewProvider(load LoadFunc) *Provider {
	return &Provider{load: load}
}

// Get returns the dataset, loading it on the first call. The load keeps the
// first caller's values but not its cancellation, so a request that goes away
// mid-load does not poison the Provider.
func (p *Provider) Get(ctx context.Context) (*Dataset, error) {
	p.once.Do(func() {
		p.ds, p.err = p.load(context.WithoutCancel(ctx))
	})
	return p.ds, p.err
}
