package box

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

func makeBox(typ string, payload []byte) []byte {
	buf := make([]byte, BasicBoxLen, BasicBoxLen+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(BasicBoxLen+len(payload)))
	copy(buf[4:], typ)
	return append(buf, payload...)
}

func makeLargeBox(typ string, payload []byte) []byte {
	buf := make([]byte, LargeBoxLen, LargeBoxLen+len(payload))
	binary.BigEndian.PutUint32(buf, 1)
	copy(buf[4:], typ)
	binary.BigEndian.PutUint64(buf[8:], uint64(LargeBoxLen+len(payload)))
	return append(buf, payload...)
}

func concat(parts ...[]byte) (out []byte) {
	for _, p := range parts {
		out = append(out, p...)
	}
	return
}

type mvhdFields struct {
	version      uint8
	flags        uint32
	creation     uint64
	modification uint64
	timescale    uint32
	duration     uint64
	rate         uint32
	volume       uint16
	matrix       [9]uint32
	preview      uint32
	previewDur   uint32
	poster       uint32
	selection    uint32
	selectionDur uint32
	current      uint32
	nextTrackID  uint32
}

// makeMvhdPayload lays the fields out at the offsets the decoder reads them from.
func makeMvhdPayload(m mvhdFields) []byte {
	var b []byte
	b = append(b, m.version, byte(m.flags>>16), byte(m.flags>>8), byte(m.flags))
	if m.version == 1 {
		b = binary.BigEndian.AppendUint64(b, m.creation)
		b = binary.BigEndian.AppendUint64(b, m.modification)
		b = binary.BigEndian.AppendUint32(b, m.timescale)
		b = binary.BigEndian.AppendUint64(b, m.duration)
	} else {
		b = binary.BigEndian.AppendUint32(b, uint32(m.creation))
		b = binary.BigEndian.AppendUint32(b, uint32(m.modification))
		b = binary.BigEndian.AppendUint32(b, m.timescale)
		b = binary.BigEndian.AppendUint32(b, uint32(m.duration))
	}
	b = binary.BigEndian.AppendUint32(b, m.rate)
	b = binary.BigEndian.AppendUint16(b, m.volume)
	for _, v := range m.matrix {
		b = binary.BigEndian.AppendUint32(b, v)
	}
	for _, v := range []uint32{m.preview, m.previewDur, m.poster, m.selection, m.selectionDur, m.current, m.nextTrackID} {
		b = binary.BigEndian.AppendUint32(b, v)
	}
	return b
}

func encodeMp4ff(t *testing.T, boxes ...mp4.Box) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, b := range boxes {
		if err := b.Encode(&buf); err != nil {
			t.Fatalf("encode %s: %v", b.Type(), err)
		}
	}
	return buf.Bytes()
}
