// Package view renders a human-readable dump of a CDP stream instead of
// validating it: one RDH per line, or the GBT words of an ITS payload
// classified through the FSM, optionally with each word's raw
// bytes. These are the minimal, functional collaborators the `view`
// CLI subcommand dispatches to; full styled table rendering is out of
// scope (see spec.md §1 Non-goals).
package view

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ehrlich-b/gopasta/internal/fsm"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/ehrlich-b/gopasta/internal/words"
)

// Kind selects which of the three view renderers to run.
type Kind int

const (
	KindRDH Kind = iota
	KindITSReadoutFrames
	KindITSReadoutFramesData
)

// Writer renders a sequence of reader.Batch values to out, in the shape
// Kind selects. It owns one fsm.FSM per link so continuous-mode state
// carries correctly across CDPs within a link, matching the way a
// LinkValidator owns its FSM.
type Writer struct {
	kind Kind
	out  *bufio.Writer
	fsms map[uint8]*fsm.FSM
}

// New builds a Writer. Buffered internally; callers must call Flush
// once done.
func New(kind Kind, out io.Writer) *Writer {
	return &Writer{kind: kind, out: bufio.NewWriter(out), fsms: make(map[uint8]*fsm.FSM)}
}

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error { return w.out.Flush() }

// RenderBatch writes every item of b according to the Writer's Kind.
// The RDH view stops at the header line; the two frame views additionally
// walk the payload word by word through the link's FSM.
func (w *Writer) RenderBatch(b reader.Batch) error {
	for i := 0; i < b.Len; i++ {
		item := b.Items[i]
		fmt.Fprintf(w.out, "0x%08X %s\n", item.MemOffset, item.RDH.String())
		if w.kind == KindRDH {
			continue
		}
		for off := 0; off+words.Size <= len(item.Payload); off += words.Size {
			var word words.GbtWord
			copy(word[:], item.Payload[off:off+words.Size])
			w.renderWord(item.RDH.LinkID, word)
		}
	}
	return nil
}

func (w *Writer) linkFsm(linkID uint8) *fsm.FSM {
	f, ok := w.fsms[linkID]
	if !ok {
		f = fsm.New()
		w.fsms[linkID] = f
	}
	return f
}

// renderWord classifies and prints one GBT word, advancing the link's
// FSM. Ambiguous classifications are still printed, tagged as such,
// matching the FSM's own recover-and-continue behavior.
func (w *Writer) renderWord(linkID uint8, word words.GbtWord) {
	f := w.linkFsm(linkID)

	noData, packetDone := wordFlags(word)
	kind, err := f.Next(word.ID(), noData, packetDone)

	line := fmt.Sprintf("  %s", kind)
	if err != nil {
		line += fmt.Sprintf(" (%s)", err)
	}
	if w.kind == KindITSReadoutFramesData {
		line += " " + hex.EncodeToString(word[:])
	}
	fmt.Fprintln(w.out, line)
}

// wordFlags extracts the two state bits the FSM needs from a TDH/TDT
// word; zero for every other kind, matching fsm.Next's own contract
// that they're ignored outside those two IDs.
func wordFlags(w words.GbtWord) (noData, packetDone bool) {
	switch w.ID() {
	case words.IDTDH:
		tdh := words.DecodeTDH(w)
		return tdh.NoData, false
	case words.IDTDT:
		tdt := words.DecodeTDT(w)
		return false, tdt.PacketDone
	default:
		return false, false
	}
}
