package util

import (
	"encoding/binary"
)

type Integer interface {
	~int | ~int16 | ~int32 | ~int64 | ~uint | ~uint16 | ~uint32 | ~uint64
}

func ReadBE[T Integer](b []byte) (num T) {
	num = 0
	for i, n := 0, len(b); i < n; i++ {
		num += T(b[i]) << ((n - i - 1) << 3)
	}
	return
}

// Buffer 只读游标，按顺序消费底层切片，不复制数据
//
// Read* 方法不做越界检查，调用前必须先用 CanReadN 确认剩余长度。
type Buffer []byte

func (b *Buffer) ReadN(n int) Buffer {
	l := b.Len()
	if n > l {
		n = l
	}
	r := (*b)[:n:n]
	*b = (*b)[n:l]
	return r
}

func (b *Buffer) ReadUint64() uint64 {
	return binary.BigEndian.Uint64(b.ReadN(8))
}
func (b *Buffer) ReadUint32() uint32 {
	return binary.BigEndian.Uint32(b.ReadN(4))
}
func (b *Buffer) ReadUint24() uint32 {
	return ReadBE[uint32](b.ReadN(3))
}
func (b *Buffer) ReadUint16() uint16 {
	return binary.BigEndian.Uint16(b.ReadN(2))
}
func (b *Buffer) ReadByte() byte {
	return b.ReadN(1)[0]
}
func (b *Buffer) ReadUint32LE() uint32 {
	return LittleEndian.Uint32(b.ReadN(4))
}
func (b *Buffer) ReadUint16LE() uint16 {
	return LittleEndian.Uint16(b.ReadN(2))
}

func (b Buffer) Len() int {
	return len(b)
}

func (b Buffer) CanReadN(n int) bool {
	return n >= 0 && b.Len() >= n
}
