package buffer

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/gostreamkit/streamkit/pkg/pool/byteslice"
	"github.com/gostreamkit/streamkit/pkg/utils"
)

// ErrNoPrependSpace is returned by Prepend when the requested header no
// longer fits in front of the readable region.
var ErrNoPrependSpace = errors.New("buffer: insufficient prepend space")

var crlf = []byte("\r\n")

// Stream is a growable byte buffer with separate read and write cursors,
// laid out as
//
//	| prependable | readable | writable |
//	0          readIdx    writeIdx   len(buf)
//
// The first prependSize bytes are reserved at construction and after any
// full reset, so a small header can be prepended to already-written payload
// without reallocation.
//
// It is NOT thread-safe: a Stream is owned by one goroutine at a time.
type Stream struct {
	buf      []byte
	readIdx  int
	writeIdx int
}

// NewStream creates a Stream with the given payload capacity (plus the
// fixed prepend reserve). Non-positive size uses the default of 1024.
// Storage comes from the byteslice pool; call Release to return it.
func NewStream(size int) *Stream {
	if size <= 0 {
		size = initialSize
	}
	return &Stream{
		buf:      byteslice.Get(prependSize + size),
		readIdx:  prependSize,
		writeIdx: prependSize,
	}
}

// ReadableBytes returns the number of bytes available to read.
func (s *Stream) ReadableBytes() int { return s.writeIdx - s.readIdx }

// WritableBytes returns the contiguous space left after the write cursor.
func (s *Stream) WritableBytes() int { return len(s.buf) - s.writeIdx }

// PrependableBytes returns the space in front of the readable region.
func (s *Stream) PrependableBytes() int { return s.readIdx }

// Cap returns the total storage size.
func (s *Stream) Cap() int { return len(s.buf) }

// Peek returns the readable region without consuming it.
// The slice is only valid until the next mutating call.
func (s *Stream) Peek() []byte { return s.buf[s.readIdx:s.writeIdx] }

// BeginWrite returns the writable region for an out-of-band write (for
// example a socket read). Commit the bytes actually written with
// HasWritten. The slice is only valid until the next mutating call.
func (s *Stream) BeginWrite() []byte { return s.buf[s.writeIdx:] }

// HasWritten advances the write cursor after a direct write into
// BeginWrite. Out-of-range counts are ignored.
func (s *Stream) HasWritten(n int) {
	if n < 0 || n > s.WritableBytes() {
		return
	}
	s.writeIdx += n
}

// HasRead consumes n readable bytes. It is an alias of Retrieve.
func (s *Stream) HasRead(n int) { s.Retrieve(n) }

// Append copies p behind the readable region, growing or compacting the
// storage as needed.
func (s *Stream) Append(p []byte) {
	s.EnsureWritable(len(p))
	copy(s.buf[s.writeIdx:], p)
	s.writeIdx += len(p)
}

// AppendString appends str without an intermediate copy of its bytes.
func (s *Stream) AppendString(str string) {
	s.Append(utils.StringToBytes(str))
}

// EnsureWritable guarantees at least n contiguous writable bytes.
//
// When the already-retrieved space at the front plus the tail space can
// hold n bytes, the readable region is shifted down to the prepend
// boundary instead of reallocating. Only when unretrieved data genuinely
// exceeds the storage does the buffer grow, so the common streaming
// pattern of repeated append/retrieve never reallocates.
func (s *Stream) EnsureWritable(n int) {
	if n <= 0 || s.WritableBytes() >= n {
		return
	}
	s.makeSpace(n)
}

func (s *Stream) makeSpace(n int) {
	if s.WritableBytes()+s.PrependableBytes() < n+prependSize {
		need := s.writeIdx + n
		if cap(s.buf) >= need {
			s.buf = s.buf[:need]
			return
		}
		nb := byteslice.Get(need)
		copy(nb, s.buf[:s.writeIdx])
		byteslice.Put(s.buf)
		s.buf = nb
		return
	}

	// Reclaim the retrieved front space.
	readable := s.ReadableBytes()
	copy(s.buf[prependSize:], s.buf[s.readIdx:s.writeIdx])
	s.readIdx = prependSize
	s.writeIdx = s.readIdx + readable
}

// Retrieve consumes n readable bytes, clamped to what is available.
// Consuming everything resets both cursors to the prepend boundary so the
// buffer does not creep toward the high end under many small retrieves.
func (s *Stream) Retrieve(n int) {
	if n < 0 {
		return
	}
	if n < s.ReadableBytes() {
		s.readIdx += n
		return
	}
	s.RetrieveAll()
}

// RetrieveUntil consumes readable bytes up to (not including) the offset
// end within the readable region, as returned by FindCRLF or FindEOL.
// Offsets outside the readable span are a no-op.
func (s *Stream) RetrieveUntil(end int) {
	if end < 0 || end > s.ReadableBytes() {
		return
	}
	s.Retrieve(end)
}

// RetrieveAll drops all readable bytes and resets the cursors, which also
// replenishes the prepend reserve.
func (s *Stream) RetrieveAll() {
	s.readIdx = prependSize
	s.writeIdx = prependSize
}

// RetrieveAsString copies up to n readable bytes out and consumes them.
func (s *Stream) RetrieveAsString(n int) string {
	if n < 0 {
		return ""
	}
	if readable := s.ReadableBytes(); n > readable {
		n = readable
	}
	out := string(s.buf[s.readIdx : s.readIdx+n])
	s.Retrieve(n)
	return out
}

// RetrieveAllAsString drains the entire readable region.
func (s *Stream) RetrieveAllAsString() string {
	return s.RetrieveAsString(s.ReadableBytes())
}

// Prepend writes p immediately before the readable region by moving the
// read cursor back. It never grows the buffer: ErrNoPrependSpace is
// returned when p does not fit, and the caller must restructure framing.
func (s *Stream) Prepend(p []byte) error {
	if len(p) > s.PrependableBytes() {
		return errors.Wrapf(ErrNoPrependSpace, "need %d, have %d", len(p), s.PrependableBytes())
	}
	s.readIdx -= len(p)
	copy(s.buf[s.readIdx:], p)
	return nil
}

// PrependUint32 prepends v as a big-endian header.
func (s *Stream) PrependUint32(v uint32) error {
	return s.Prepend(utils.Uint32ToBytesByBigEndian(v))
}

// PrependUint16 prepends v as a big-endian header.
func (s *Stream) PrependUint16(v uint16) error {
	return s.Prepend(utils.Uint16ToBytesByBigEndian(v))
}

// AppendUint32 appends v in big-endian order.
func (s *Stream) AppendUint32(v uint32) {
	s.Append(utils.Uint32ToBytesByBigEndian(v))
}

// AppendUint16 appends v in big-endian order.
func (s *Stream) AppendUint16(v uint16) {
	s.Append(utils.Uint16ToBytesByBigEndian(v))
}

// PeekUint32 decodes a big-endian uint32 from the front of the readable
// region without consuming it. false when fewer than 4 bytes are readable.
func (s *Stream) PeekUint32() (uint32, bool) {
	if s.ReadableBytes() < 4 {
		return 0, false
	}
	return utils.BytesToUint32ByBigEndian(s.Peek()[:4]), true
}

// PeekUint16 decodes a big-endian uint16 without consuming it.
func (s *Stream) PeekUint16() (uint16, bool) {
	if s.ReadableBytes() < 2 {
		return 0, false
	}
	return utils.BytesToUint16ByBigEndian(s.Peek()[:2]), true
}

// ReadUint32 decodes and consumes a big-endian uint32 header.
func (s *Stream) ReadUint32() (uint32, bool) {
	v, ok := s.PeekUint32()
	if ok {
		s.Retrieve(4)
	}
	return v, ok
}

// ReadUint16 decodes and consumes a big-endian uint16 header.
func (s *Stream) ReadUint16() (uint16, bool) {
	v, ok := s.PeekUint16()
	if ok {
		s.Retrieve(2)
	}
	return v, ok
}

// FindCRLF returns the offset of the first "\r\n" in the readable region,
// or -1 when absent.
func (s *Stream) FindCRLF() int {
	return bytes.Index(s.Peek(), crlf)
}

// FindCRLFFrom is FindCRLF starting the scan at offset start within the
// readable region. Offsets outside the readable span report -1.
func (s *Stream) FindCRLFFrom(start int) int {
	if start < 0 || start >= s.ReadableBytes() {
		return -1
	}
	idx := bytes.Index(s.Peek()[start:], crlf)
	if idx < 0 {
		return -1
	}
	return start + idx
}

// FindEOL returns the offset of the first '\n' in the readable region,
// or -1 when absent.
func (s *Stream) FindEOL() int {
	return bytes.IndexByte(s.Peek(), '\n')
}

// Shrink reallocates the storage to exactly the prepend reserve plus the
// readable bytes plus reserve, releasing over-grown capacity. Cursors are
// reset to the prepend boundary.
func (s *Stream) Shrink(reserve int) {
	if reserve < 0 {
		reserve = 0
	}
	readable := s.ReadableBytes()
	nb := byteslice.Get(prependSize + readable + reserve)
	copy(nb[prependSize:], s.buf[s.readIdx:s.writeIdx])
	byteslice.Put(s.buf)
	s.buf = nb
	s.readIdx = prependSize
	s.writeIdx = prependSize + readable
}

// Release returns the storage to the byteslice pool. The Stream must not
// be used afterwards.
func (s *Stream) Release() {
	if s.buf == nil {
		return
	}
	byteslice.Put(s.buf)
	s.buf = nil
	s.readIdx = 0
	s.writeIdx = 0
}

// String returns the readable region as a string without consuming it.
func (s *Stream) String() string {
	return string(s.Peek())
}

// Read drains readable bytes into p, implementing io.Reader.
// It reports io.EOF when the buffer is empty.
func (s *Stream) Read(p []byte) (int, error) {
	if s.ReadableBytes() == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.Peek())
	s.Retrieve(n)
	return n, nil
}

// Write appends p, implementing io.Writer. It never fails.
func (s *Stream) Write(p []byte) (int, error) {
	s.Append(p)
	return len(p), nil
}

// WriteTo drains the readable region into w, implementing io.WriterTo.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	if s.ReadableBytes() == 0 {
		return 0, nil
	}
	n, err := w.Write(s.Peek())
	s.Retrieve(n)
	return int64(n), err
}

// ReadFrom fills the buffer from r until EOF, implementing io.ReaderFrom.
// Data is read directly into the writable region.
func (s *Stream) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		if s.WritableBytes() < readChunk {
			s.EnsureWritable(readChunk)
		}
		n, err := r.Read(s.BeginWrite())
		if n > 0 {
			s.HasWritten(n)
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
