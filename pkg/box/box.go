// Package box decodes ISO base media file format (MP4) box structures from
// complete in-memory buffers.
package box

import (
	"fmt"

	"m7s.live/probe/pkg/util"
)

const (
	BasicBoxLen = 8
	LargeBoxLen = 16
)

// BoxType is the 4-character box type tag.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

func f(s string) BoxType {
	return BoxType([]byte(s))
}

var (
	TypeFTYP = f("ftyp")
	TypeSTYP = f("styp")
	TypeMOOV = f("moov")
	TypeMVHD = f("mvhd")
)

// IBox is a decoded box record.
type IBox interface {
	BoxType() BoxType
}

//	aligned(8) class Box (unsigned int(32) boxtype) {
//	    unsigned int(32) size;
//	    unsigned int(32) type = boxtype;
//	    if (size==1) {
//	       unsigned int(64) largesize;
//	    } else if (size==0) {
//	       // box extends to end of file
//	    }
//	}

// Chunk is one box as found by the walker. Payload borrows the source buffer.
type Chunk struct {
	Offset     int64  // absolute offset of the box header
	Size       uint64 // effective size including the header
	HeaderSize int    // 8, or 16 with a largesize
	Type       BoxType
	Span       util.Range[int] // payload position within the walked buffer
	Payload    []byte
}

// Result pairs a walked chunk with its decoded record or the decode error.
// Chunks whose type has no decoder keep only the raw Chunk.
type Result struct {
	Chunk
	Box IBox
	Err error
}

// Error carries the position and type of the box that failed to decode.
// Err wraps one of the pkg.Err* kinds.
type Error struct {
	Offset int64
	Type   BoxType
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("box %q at offset %d: %v", e.Type.String(), e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
