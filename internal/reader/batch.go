// Package reader turns a raw CRU byte stream into a sequence of batches
// of (RDH, payload, offset) triples, applying the coarse link/FEE/stave
// filter and tracking absolute stream position as it goes.
package reader

import "github.com/ehrlich-b/gopasta/internal/rdh"

// Cap is the fixed size of a Batch. Chosen to keep a batch small enough
// that one blocked validator doesn't stall the reader for long, and
// large enough to amortize the channel-send cost across many CDPs.
const Cap = 64

// Item is one decoded CDP: its header, its payload bytes, and the
// absolute byte offset of the header's first byte in the input stream.
type Item struct {
	RDH       rdh.RDH
	Payload   []byte
	MemOffset uint64
}

// Release returns the item's payload buffer to the pool. Callers must
// not touch Payload afterward; call this only once the item's consumer
// (a LinkValidator) is done with it, never right after dispatch.
func (it *Item) Release() {
	putBuffer(it.Payload)
	it.Payload = nil
}

// Batch is a fixed-capacity run of Items. Len is the number actually
// populated; the reader yields a partial batch at EOF.
type Batch struct {
	Items [Cap]Item
	Len   int
}

