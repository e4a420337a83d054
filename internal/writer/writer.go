// Package writer implements the -o/--output passthrough path: every
// CDP the active filter matched is re-serialized to the destination (the
// RDH re-encoded by rdh.Encode, which writes its reserved fields as zero,
// followed by the payload bytes unchanged), so a filtered run can feed a
// second scan or an external tool.
package writer

import (
	"bufio"
	"io"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/reader"
)

// Writer appends each dispatched CDP to an underlying byte sink in
// wire order: the 64-byte RDH followed by its payload.
type Writer struct {
	out *bufio.Writer
}

// New wraps dst for buffered CDP writes. Callers must call Flush
// before closing dst.
func New(dst io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(dst)}
}

// Flush writes any buffered bytes to the underlying destination.
func (w *Writer) Flush() error { return w.out.Flush() }

// WriteBatch serializes every item of b to the destination in order.
func (w *Writer) WriteBatch(b reader.Batch) error {
	for i := 0; i < b.Len; i++ {
		item := b.Items[i]
		if err := w.WriteCDP(item.RDH, item.Payload); err != nil {
			return err
		}
	}
	return nil
}

// WriteCDP serializes one RDH and its payload.
func (w *Writer) WriteCDP(h rdh.RDH, payload []byte) error {
	if _, err := w.out.Write(rdh.Encode(h)); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.out.Write(payload)
	return err
}
