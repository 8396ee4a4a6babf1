package box

import (
	"encoding/binary"
	"fmt"

	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/config"
	"m7s.live/probe/pkg/util"
)

// Walker splits one level of a buffer into chunks.
//
//	w := box.NewWalker(buf, conf)
//	for w.Next() {
//		c := w.Chunk()
//	}
//	if err := w.Err(); err != nil {
//		return err
//	}
type Walker struct {
	buf    []byte
	base   int64 // absolute offset of buf[0]
	pos    int
	reject bool // size==0 boxes are malformed
	chunk  Chunk
	err    error
}

func NewWalker(buf []byte, conf config.MP4) *Walker {
	return newWalker(buf, 0, conf)
}

func newWalker(buf []byte, base int64, conf config.MP4) *Walker {
	return &Walker{
		buf:    buf,
		base:   base,
		reject: conf.ZeroSize == config.ZeroSizeReject,
	}
}

// Next advances to the next chunk. It returns false at the end of the buffer
// or on the first malformed chunk, after which Err reports the cause.
func (w *Walker) Next() bool {
	if w.err != nil || w.pos >= len(w.buf) {
		return false
	}
	remain := len(w.buf) - w.pos
	if remain < BasicBoxLen {
		return w.fail(BoxType{}, "%d trailing bytes cannot hold a box header", remain)
	}
	header := w.buf[w.pos:]
	size := uint64(binary.BigEndian.Uint32(header))
	typ := BoxType(header[4:8])
	headerSize := BasicBoxLen
	switch size {
	case 1:
		if remain < LargeBoxLen {
			return w.fail(typ, "%d bytes cannot hold a largesize header", remain)
		}
		size = binary.BigEndian.Uint64(header[8:])
		headerSize = LargeBoxLen
	case 0:
		if w.reject {
			return w.fail(typ, "size 0 (to end of buffer) is not accepted")
		}
		size = uint64(remain)
	}
	if size < uint64(headerSize) {
		return w.fail(typ, "size %d smaller than header size %d", size, headerSize)
	}
	if size > uint64(remain) {
		return w.fail(typ, "size %d exceeds the %d remaining bytes", size, remain)
	}
	end := w.pos + int(size)
	start := w.pos + headerSize
	w.chunk = Chunk{
		Offset:     w.base + int64(w.pos),
		Size:       size,
		HeaderSize: headerSize,
		Type:       typ,
		Span:       util.Range[int]{start, end},
		Payload:    w.buf[start:end:end],
	}
	w.pos = end
	return true
}

func (w *Walker) fail(typ BoxType, format string, args ...any) bool {
	w.err = &Error{
		Offset: w.base + int64(w.pos),
		Type:   typ,
		Err:    fmt.Errorf("%w: "+format, append([]any{pkg.ErrMalformedBox}, args...)...),
	}
	return false
}

func (w *Walker) Chunk() Chunk {
	return w.chunk
}

func (w *Walker) Err() error {
	return w.err
}

// Walk eagerly splits buf into chunks using the default size==0 handling.
// On error the chunks preceding the malformed one are returned with it.
func Walk(buf []byte) (chunks []Chunk, err error) {
	w := NewWalker(buf, config.MP4{})
	for w.Next() {
		chunks = append(chunks, w.Chunk())
	}
	return chunks, w.Err()
}
