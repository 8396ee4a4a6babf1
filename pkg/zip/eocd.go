// Package zip decodes the trailer of a ZIP archive: the End of Central
// Directory record and the Central Directory file headers it points to.
// Entry data is never read or decompressed.
package zip

import (
	"fmt"

	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/util"
)

const (
	EOCDSignature = 0x06054b50
	EOCDLen       = 22
	MaxCommentLen = 0xffff
)

//	end of central dir signature    4 bytes  (0x06054b50)
//	number of this disk             2 bytes
//	disk where central directory starts  2 bytes
//	number of central directory records on this disk  2 bytes
//	total number of central directory records  2 bytes
//	size of central directory       4 bytes
//	offset of start of central directory  4 bytes
//	comment length                  2 bytes
//	comment                         (variable size)
type EndOfCentralDirectory struct {
	Signature        uint32
	DiskNumber       uint16
	StartDiskNumber  uint16
	DiskEntries      uint16
	TotalDiskEntries uint16
	Size             uint32
	Offset           uint32
	CommentLength    uint16
	Comment          []byte // borrowed, nil when CommentLength is 0
	RecordOffset     int64  // position of the record in the buffer it was located in
}

// ParseEOCD decodes a complete record: the 22-byte header followed by exactly
// CommentLength bytes of comment.
func ParseEOCD(record []byte) (*EndOfCentralDirectory, error) {
	if len(record) < EOCDLen {
		return nil, fmt.Errorf("%w: eocd record is %d bytes, need %d", pkg.ErrTooShort, len(record), EOCDLen)
	}
	if len(record) > EOCDLen+MaxCommentLen {
		return nil, fmt.Errorf("%w: eocd record is %d bytes, at most %d", pkg.ErrTooLong, len(record), EOCDLen+MaxCommentLen)
	}
	b := util.Buffer(record)
	eocd := &EndOfCentralDirectory{Signature: b.ReadUint32LE()}
	if eocd.Signature != EOCDSignature {
		return nil, fmt.Errorf("%w: eocd %#08x", pkg.ErrInvalidSignature, eocd.Signature)
	}
	eocd.DiskNumber = b.ReadUint16LE()
	eocd.StartDiskNumber = b.ReadUint16LE()
	eocd.DiskEntries = b.ReadUint16LE()
	eocd.TotalDiskEntries = b.ReadUint16LE()
	eocd.Size = b.ReadUint32LE()
	eocd.Offset = b.ReadUint32LE()
	eocd.CommentLength = b.ReadUint16LE()
	if b.Len() != int(eocd.CommentLength) {
		return nil, fmt.Errorf("%w: eocd declares a %d-byte comment, record carries %d", pkg.ErrInvalidSignature, eocd.CommentLength, b.Len())
	}
	if eocd.CommentLength > 0 {
		eocd.Comment = b.ReadN(int(eocd.CommentLength))
	}
	return eocd, nil
}

// LocateEOCD scans buf backward for the EOCD record. The record ending k
// bytes before the end of buf is accepted only if its comment length is k,
// so a signature occurring inside a comment is not mistaken for the record.
func LocateEOCD(buf []byte) (*EndOfCentralDirectory, error) {
	return locateEOCD(buf, MaxCommentLen)
}

// maxComment <= 0 means MaxCommentLen.
func locateEOCD(buf []byte, maxComment int) (*EndOfCentralDirectory, error) {
	if len(buf) < EOCDLen {
		return nil, fmt.Errorf("%w: %d bytes cannot hold an eocd record", pkg.ErrTooShort, len(buf))
	}
	if maxComment <= 0 || maxComment > MaxCommentLen {
		maxComment = MaxCommentLen
	}
	limit := min(maxComment, len(buf)-EOCDLen)
	for k := 0; k <= limit; k++ {
		start := len(buf) - EOCDLen - k
		window := buf[start : start+EOCDLen]
		if util.LittleEndian.Uint32(window) != EOCDSignature || int(util.LittleEndian.Uint16(window[20:])) != k {
			continue
		}
		eocd, err := ParseEOCD(buf[start:])
		if err != nil {
			return nil, err
		}
		eocd.RecordOffset = int64(start)
		return eocd, nil
	}
	return nil, fmt.Errorf("%w: scanned %d comment lengths", pkg.ErrEOCDNotFound, limit+1)
}

// CentralDirectory returns the region [Offset, Offset+Size) of buf.
func (eocd *EndOfCentralDirectory) CentralDirectory(buf []byte) ([]byte, error) {
	r := util.Range[int64]{int64(eocd.Offset), int64(eocd.Offset) + int64(eocd.Size)}
	if r[1] > int64(len(buf)) {
		return nil, fmt.Errorf("%w: directory %s outside a %d-byte buffer", pkg.ErrInvalidCentralDir, r, len(buf))
	}
	if eocd.RecordOffset > 0 && r[1] > eocd.RecordOffset {
		return nil, fmt.Errorf("%w: directory %s overlaps the eocd at %d", pkg.ErrInvalidCentralDir, r, eocd.RecordOffset)
	}
	return buf[r[0]:r[1]:r[1]], nil
}
