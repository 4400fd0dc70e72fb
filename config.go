package alligator

// Compile-time tunables for the allocator's geometry. These are defaults;
// override via Option when constructing a Config.
const (
	// MinSizeClass is the smallest size class: 1<<3 = 8 bytes.
	MinSizeClass = 3
	// MaxSizeClass is the largest small size class: 1<<11 = 2048 bytes.
	MaxSizeClass = 11
	// MiniPageDataBytes is the payload size of a MiniPage slab.
	MiniPageDataBytes = 2048
	// BitmapBytes is the fixed size of a MiniPage free bitmap.
	BitmapBytes = 256
	// HostPageBytes is the size of one host-heap growth unit (one WASM page).
	HostPageBytes = 65536
	// defaultMaxHostPages is the WebAssembly MVP page ceiling (4 GiB / 64 KiB).
	// A much smaller cap is available via WithMaxHostPages for tests that
	// want to force OutOfHostMemory cheaply.
	defaultMaxHostPages = 65536
)

// Config holds the allocator's compile-time tunables as run-time values so
// tests can exercise edge cases (e.g. a tiny MaxHostPages to force OOM)
// without rebuilding the module.
type Config struct {
	MinSizeClass      uint8
	MaxSizeClass      uint8
	MiniPageDataBytes uint32
	BitmapBytes       uint32
	HostPageBytes     uint32
	MaxHostPages      uint32
}

// Option configures a Config.
type Option func(*Config)

// DefaultConfig returns the spec-mandated default tunables.
func DefaultConfig() Config {
	return Config{
		MinSizeClass:      MinSizeClass,
		MaxSizeClass:      MaxSizeClass,
		MiniPageDataBytes: MiniPageDataBytes,
		BitmapBytes:       BitmapBytes,
		HostPageBytes:     HostPageBytes,
		MaxHostPages:      defaultMaxHostPages,
	}
}

// NewConfig builds a Config from the defaults plus any Options.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxHostPages overrides the host-heap page ceiling. Useful for tests
// that want to reach OutOfHostMemory without growing a multi-gigabyte heap.
func WithMaxHostPages(pages uint32) Option {
	return func(c *Config) {
		c.MaxHostPages = pages
	}
}

// WithMaxSizeClass overrides the largest small size class. Must stay within
// what a uint8 bitmap index and the MiniPage stride can represent.
func WithMaxSizeClass(c uint8) Option {
	return func(cfg *Config) {
		cfg.MaxSizeClass = c
	}
}

// MiniPageStride returns the header size plus MiniPageDataBytes: the fixed
// byte distance between consecutive MiniPage (and quantized big-alloc)
// regions.
func (c Config) MiniPageStride() uint32 {
	return headerSize(c) + c.MiniPageDataBytes
}
