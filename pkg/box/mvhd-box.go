package box

import (
	"fmt"
	"math"
	"time"

	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/util"
)

// Movie header layout as decoded here, after the 4 version/flags bytes:
//
//	if (version==1) {
//		unsigned int(64) creation_time;
//		unsigned int(64) modification_time;
//		unsigned int(32) timescale;
//		unsigned int(64) duration;
//	} else { // version==0
//		unsigned int(32) creation_time;
//		unsigned int(32) modification_time;
//		unsigned int(32) timescale;
//		unsigned int(32) duration;
//	}
//	base+0   rate       16.16
//	base+4   volume     8.8
//	base+6   matrix     9 x uint32
//	base+42  preview_time, preview_duration, poster_time, selection_time,
//	         selection_duration, current_time, next_track_ID
const (
	mvhdTimesV0 = 16
	mvhdTimesV1 = 28
	mvhdTailLen = 70

	// seconds between 1904-01-01 and 1970-01-01
	macEpochOffset = 0x7C25B080
	maxMacSeconds  = 1 << 62
)

type MovieHeaderBox struct {
	Version           uint8
	Flags             uint32
	CreationTime      uint64
	ModificationTime  uint64
	Timescale         uint32
	Duration          uint64
	Rate              float64
	Volume            float64
	Matrix            [9]uint32
	PreviewTime       uint32
	PreviewDuration   uint32
	PosterTime        uint32
	SelectionTime     uint32
	SelectionDuration uint32
	CurrentTime       uint32
	NextTrackID       uint32
}

func (mvhd *MovieHeaderBox) BoxType() BoxType {
	return TypeMVHD
}

// DurationTime converts Duration from timescale units. A zero timescale
// yields 0; durations beyond the time.Duration range saturate at its maximum.
func (mvhd *MovieHeaderBox) DurationTime() time.Duration {
	if mvhd.Timescale == 0 {
		return 0
	}
	sec := mvhd.Duration / uint64(mvhd.Timescale)
	rem := mvhd.Duration % uint64(mvhd.Timescale)
	if sec >= math.MaxInt64/uint64(time.Second) {
		return math.MaxInt64
	}
	return time.Duration(sec)*time.Second + time.Duration(rem)*time.Second/time.Duration(mvhd.Timescale)
}

// CreatedAt converts CreationTime (seconds since 1904-01-01 UTC).
func (mvhd *MovieHeaderBox) CreatedAt() time.Time {
	return macTime(mvhd.CreationTime)
}

func (mvhd *MovieHeaderBox) ModifiedAt() time.Time {
	return macTime(mvhd.ModificationTime)
}

// 超出 maxMacSeconds 的值按 maxMacSeconds 处理，time.Time 无法表示更大的秒数
func macTime(sec uint64) time.Time {
	return time.Unix(int64(min(sec, maxMacSeconds))-macEpochOffset, 0).UTC()
}

func decodeMvhd(_ *DecodeContext, payload []byte) (IBox, error) {
	b := util.Buffer(payload)
	if !b.CanReadN(4) {
		return nil, fmt.Errorf("%w: payload is %d bytes, need 4 for version and flags", pkg.ErrTruncatedBox, len(payload))
	}
	mvhd := &MovieHeaderBox{
		Version: b.ReadByte(),
		Flags:   b.ReadUint24(),
	}
	var times int
	switch mvhd.Version {
	case 0:
		times = mvhdTimesV0
	case 1:
		times = mvhdTimesV1
	default:
		return nil, fmt.Errorf("%w: unsupported mvhd version %d", pkg.ErrMalformedBox, mvhd.Version)
	}
	if need := times + mvhdTailLen; !b.CanReadN(need) {
		return nil, fmt.Errorf("%w: version %d needs %d bytes after flags, have %d", pkg.ErrTruncatedBox, mvhd.Version, need, b.Len())
	}
	if mvhd.Version == 1 {
		mvhd.CreationTime = b.ReadUint64()
		mvhd.ModificationTime = b.ReadUint64()
		mvhd.Timescale = b.ReadUint32()
		mvhd.Duration = b.ReadUint64()
	} else {
		mvhd.CreationTime = uint64(b.ReadUint32())
		mvhd.ModificationTime = uint64(b.ReadUint32())
		mvhd.Timescale = b.ReadUint32()
		mvhd.Duration = uint64(b.ReadUint32())
	}
	mvhd.Rate = float64(b.ReadUint16()) + float64(b.ReadUint16())/0x10000
	mvhd.Volume = float64(b.ReadByte()) + float64(b.ReadByte())/0x100
	for i := range mvhd.Matrix {
		mvhd.Matrix[i] = b.ReadUint32()
	}
	mvhd.PreviewTime = b.ReadUint32()
	mvhd.PreviewDuration = b.ReadUint32()
	mvhd.PosterTime = b.ReadUint32()
	mvhd.SelectionTime = b.ReadUint32()
	mvhd.SelectionDuration = b.ReadUint32()
	mvhd.CurrentTime = b.ReadUint32()
	mvhd.NextTrackID = b.ReadUint32()
	return mvhd, nil
}
