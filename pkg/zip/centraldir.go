package zip

import (
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/config"
	"m7s.live/probe/pkg/util"
)

const (
	CentralDirectorySignature = 0x02014b50
	CentralDirectoryHeaderLen = 46

	FlagUTF8 = 0x800 // general purpose bit 11: name and comment are UTF-8
)

type CentralDirectoryHeader struct {
	Signature         uint32
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            uint16
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileNameLength    uint16
	ExtraFieldLength  uint16
	FileCommentLength uint16
	DiskNumberStart   uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32

	// 以下字段引用原始缓冲区, 长度为 0 时 ExtraField 和 FileComment 为 nil
	FileName    []byte
	ExtraField  []byte
	FileComment []byte
}

// Len is the size of the encoded record including the variable fields.
func (h *CentralDirectoryHeader) Len() int {
	return CentralDirectoryHeaderLen + int(h.FileNameLength) + int(h.ExtraFieldLength) + int(h.FileCommentLength)
}

// ReadCentralDirectoryHeader decodes the record at the start of buf and
// reports how many bytes it used. Bytes after the record are ignored.
func ReadCentralDirectoryHeader(buf []byte) (*CentralDirectoryHeader, int, error) {
	if len(buf) < CentralDirectoryHeaderLen {
		return nil, 0, fmt.Errorf("%w: %d bytes, need %d", pkg.ErrInvalidCentralDir, len(buf), CentralDirectoryHeaderLen)
	}
	b := util.Buffer(buf)
	h := &CentralDirectoryHeader{Signature: b.ReadUint32LE()}
	if h.Signature != CentralDirectorySignature {
		return nil, 0, fmt.Errorf("%w: %w %#08x", pkg.ErrInvalidCentralDir, pkg.ErrInvalidSignature, h.Signature)
	}
	h.VersionMadeBy = b.ReadUint16LE()
	h.VersionNeeded = b.ReadUint16LE()
	h.Flags = b.ReadUint16LE()
	h.Method = b.ReadUint16LE()
	h.ModifiedTime = b.ReadUint16LE()
	h.ModifiedDate = b.ReadUint16LE()
	h.CRC32 = b.ReadUint32LE()
	h.CompressedSize = b.ReadUint32LE()
	h.UncompressedSize = b.ReadUint32LE()
	h.FileNameLength = b.ReadUint16LE()
	h.ExtraFieldLength = b.ReadUint16LE()
	h.FileCommentLength = b.ReadUint16LE()
	h.DiskNumberStart = b.ReadUint16LE()
	h.InternalAttrs = b.ReadUint16LE()
	h.ExternalAttrs = b.ReadUint32LE()
	h.LocalHeaderOffset = b.ReadUint32LE()
	if n := h.Len() - CentralDirectoryHeaderLen; !b.CanReadN(n) {
		return nil, 0, fmt.Errorf("%w: variable fields need %d bytes, have %d", pkg.ErrInvalidCentralDir, n, b.Len())
	}
	h.FileName = b.ReadN(int(h.FileNameLength))
	if h.ExtraFieldLength > 0 {
		h.ExtraField = b.ReadN(int(h.ExtraFieldLength))
	}
	if h.FileCommentLength > 0 {
		h.FileComment = b.ReadN(int(h.FileCommentLength))
	}
	return h, h.Len(), nil
}

// DecodeCentralDirectoryHeader decodes buf as exactly one record.
func DecodeCentralDirectoryHeader(buf []byte) (*CentralDirectoryHeader, error) {
	h, n, err := ReadCentralDirectoryHeader(buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("%w: record is %d bytes, buffer has %d", pkg.ErrInvalidCentralDir, n, len(buf))
	}
	return h, nil
}

// Error locates a bad record inside a central directory.
type Error struct {
	Index  int   // record number
	Offset int64 // relative to the start of the central directory
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("central directory record %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReadCentralDirectory decodes count concatenated records from region. In
// strict mode the records must cover region exactly. On error the records
// decoded so far are returned.
func ReadCentralDirectory(region []byte, count int, strict bool) ([]*CentralDirectoryHeader, error) {
	headers := make([]*CentralDirectoryHeader, 0, count)
	var pos int
	for i := 0; i < count; i++ {
		h, n, err := ReadCentralDirectoryHeader(region[pos:])
		if err != nil {
			return headers, &Error{Index: i, Offset: int64(pos), Err: err}
		}
		headers = append(headers, h)
		pos += n
	}
	if strict && pos != len(region) {
		return headers, &Error{Index: count, Offset: int64(pos), Err: fmt.Errorf("%w: %d bytes left after %d records", pkg.ErrInvalidCentralDir, len(region)-pos, count)}
	}
	return headers, nil
}

// Name decodes FileName as UTF-8 when FlagUTF8 is set and as code page 437 otherwise.
func (h *CentralDirectoryHeader) Name() string {
	return h.DecodeName(config.NameEncodingCP437)
}

// DecodeName is Name with a different fallback for names without FlagUTF8.
// With config.NameEncodingUTF8 such names are still read as CP437 when
// they are not valid UTF-8.
func (h *CentralDirectoryHeader) DecodeName(fallback string) string {
	if h.Flags&FlagUTF8 != 0 || (fallback == config.NameEncodingUTF8 && utf8.Valid(h.FileName)) {
		return string(h.FileName)
	}
	name, err := charmap.CodePage437.NewDecoder().Bytes(h.FileName)
	if err != nil {
		return string(h.FileName)
	}
	return string(name)
}

// Modified converts the MS-DOS date and time fields. The result is in UTC
// since the fields carry no zone.
func (h *CentralDirectoryHeader) Modified() time.Time {
	return time.Date(
		int(h.ModifiedDate>>9)+1980,
		time.Month(h.ModifiedDate>>5&0xf),
		int(h.ModifiedDate&0x1f),
		int(h.ModifiedTime>>11),
		int(h.ModifiedTime>>5&0x3f),
		int(h.ModifiedTime&0x1f)*2,
		0,
		time.UTC,
	)
}
