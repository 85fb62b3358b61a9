package download

import (
	"net/http"
	"os"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Defaults.
const (
	DefaultWorkers    = 8
	DefaultBufferSize = 32 * int(types.KiB)
	DefaultUserAgent  = "rig"
)

// Verifier remembers files whose digest has already been checked so later
// runs can skip rehashing them.
type Verifier interface {
	// Verified reports whether path, as described by info, was recorded with
	// digest sha1.
	Verified(path string, info os.FileInfo, sha1 string) bool

	// Record stores that path, as described by info, has digest sha1.
	Record(path string, info os.FileInfo, sha1 string) error
}

// Options configures an Engine.
type Options struct {
	// Root is the install root item paths are relative to.
	Root string

	// Workers bounds the number of items in flight.
	Workers int

	// Client performs the requests. Defaults to a client without a total
	// timeout; cancel through the context instead.
	Client *http.Client

	// Cache is an optional Verifier. Nil always rehashes.
	Cache Verifier

	// UserAgent is sent with every request.
	UserAgent string

	// BufferSize is the read size per chunk.
	BufferSize int
}

// Validate fills in defaults.
func (o *Options) Validate() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.BufferSize < 1 {
		o.BufferSize = DefaultBufferSize
	}
}
