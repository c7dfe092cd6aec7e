package store

// Defaults applied when an option is unset.
const (
	// DefaultPageSize is the number of records per Scan page.
	DefaultPageSize = 100

	// DefaultScanCount is the COUNT hint passed to Redis SCAN.
	DefaultScanCount = 100
)

type options struct {
	pageSize  int
	scanCount int64
}

// Option configures a store constructor.
type Option func(*options)

// WithPageSize sets the number of records per Scan page for MemoryStore and
// SQLStore.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithScanCount sets the SCAN COUNT hint for RedisStore.
func WithScanCount(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.scanCount = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		pageSize:  DefaultPageSize,
		scanCount: DefaultScanCount,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
