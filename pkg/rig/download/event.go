package download

import (
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// EventType identifies a progress event.
type EventType int

// Event types. For a single item events arrive as Start, zero or more
// Chunk, then exactly one of Finish or Error.
const (
	EventStart EventType = iota
	EventChunk
	EventFinish
	EventError
)

// String returns the lowercase event name.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventChunk:
		return "chunk"
	case EventFinish:
		return "finish"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event reports progress of one item.
type Event struct {
	Type EventType

	// Item is the item the event belongs to.
	Item types.Item

	// Path is the absolute destination.
	Path string

	// ChunkBytes is the size of the chunk just written (Chunk only).
	ChunkBytes int64

	// Downloaded is the number of bytes written so far. On a cached Finish
	// it is the size of the existing file.
	Downloaded int64

	// Total is the expected size, or types.UnknownSize.
	Total int64

	// Cached is set on Finish when the existing file already matched.
	Cached bool

	// Err is set on Error.
	Err error
}
