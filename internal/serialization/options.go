package serialization

import (
	"log/slog"
	"runtime"
)

// Option configures Encode, Decode and the file helpers built on them.
type Option func(*options)

type options struct {
	codec          string
	metadata       map[string]string
	logger         *slog.Logger
	registry       *Registry
	validation     ValidationLevel
	verifyChecksum bool
	concurrency    int
}

func defaultOptions() options {
	return options{
		codec:          CodecNone,
		logger:         slog.New(slog.DiscardHandler),
		validation:     ValidationStrict,
		verifyChecksum: true,
		concurrency:    runtime.GOMAXPROCS(0),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = defaultRegistry()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// WithCompression selects the codec used for table payloads on write.
// Payloads that do not shrink are stored raw.
func WithCompression(codec string) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithMetadata attaches custom key/value metadata on write.
func WithMetadata(metadata map[string]string) Option {
	return func(o *options) {
		o.metadata = metadata
	}
}

// WithLogger sets the logger for debug output. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry replaces the built-in codec registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithValidation sets the header validation level on read.
func WithValidation(level ValidationLevel) Option {
	return func(o *options) {
		o.validation = level
	}
}

// WithVerifyChecksum enables or disables data checksum verification on read.
func WithVerifyChecksum(verify bool) Option {
	return func(o *options) {
		o.verifyChecksum = verify
	}
}

// WithConcurrency bounds the number of payloads encoded or decoded at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}
