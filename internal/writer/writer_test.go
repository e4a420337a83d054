package writer

import (
	"bytes"
	"testing"

	"github.com/ehrlich-b/gopasta/internal/rdh"
	"github.com/ehrlich-b/gopasta/internal/reader"
	"github.com/stretchr/testify/require"
)

func TestWriteCDPEmitsRDHThenPayload(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	h := rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, LinkID: 3, FeeID: 12, SystemID: 32, OffsetToNext: 74, MemorySize: 74}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	require.NoError(t, w.WriteCDP(h, payload))
	require.NoError(t, w.Flush())

	require.Equal(t, rdh.Size+len(payload), buf.Len())
	require.Equal(t, rdh.Encode(h), buf.Bytes()[:rdh.Size])
	require.Equal(t, payload, buf.Bytes()[rdh.Size:])
}

func TestWriteCDPEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	h := rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, SystemID: 32, OffsetToNext: rdh.Size, MemorySize: rdh.Size}
	require.NoError(t, w.WriteCDP(h, nil))
	require.NoError(t, w.Flush())
	require.Equal(t, rdh.Size, buf.Len())
}

func TestWriteBatchWritesEveryItem(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	var b reader.Batch
	b.Items[0] = reader.Item{RDH: rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, SystemID: 32, OffsetToNext: rdh.Size + 10, MemorySize: rdh.Size + 10}, Payload: make([]byte, 10)}
	b.Items[1] = reader.Item{RDH: rdh.RDH{HeaderID: 7, HeaderSize: rdh.Size, SystemID: 32, OffsetToNext: rdh.Size, MemorySize: rdh.Size}}
	b.Len = 2

	require.NoError(t, w.WriteBatch(b))
	require.NoError(t, w.Flush())
	require.Equal(t, rdh.Size*2+10, buf.Len())
}
