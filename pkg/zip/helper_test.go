package zip

import "m7s.live/probe/pkg/util"

func makeEOCD(entries uint16, size, offset uint32, comment []byte) []byte {
	b := make([]byte, EOCDLen, EOCDLen+len(comment))
	util.LittleEndian.PutUint32(b, EOCDSignature)
	util.LittleEndian.PutUint16(b[8:], entries)
	util.LittleEndian.PutUint16(b[10:], entries)
	util.LittleEndian.PutUint32(b[12:], size)
	util.LittleEndian.PutUint32(b[16:], offset)
	util.LittleEndian.PutUint16(b[20:], uint16(len(comment)))
	return append(b, comment...)
}

type cdFields struct {
	signature uint32
	flags     uint16
	method    uint16
	dosTime   uint16
	dosDate   uint16
	crc       uint32
	size      uint32
	offset    uint32
	name      []byte
	extra     []byte
	comment   []byte
}

func makeCDH(f cdFields) []byte {
	if f.signature == 0 {
		f.signature = CentralDirectorySignature
	}
	b := make([]byte, CentralDirectoryHeaderLen, CentralDirectoryHeaderLen+len(f.name)+len(f.extra)+len(f.comment))
	util.LittleEndian.PutUint32(b, f.signature)
	util.LittleEndian.PutUint16(b[4:], 20)
	util.LittleEndian.PutUint16(b[6:], 20)
	util.LittleEndian.PutUint16(b[8:], f.flags)
	util.LittleEndian.PutUint16(b[10:], f.method)
	util.LittleEndian.PutUint16(b[12:], f.dosTime)
	util.LittleEndian.PutUint16(b[14:], f.dosDate)
	util.LittleEndian.PutUint32(b[16:], f.crc)
	util.LittleEndian.PutUint32(b[20:], f.size)
	util.LittleEndian.PutUint32(b[24:], f.size)
	util.LittleEndian.PutUint16(b[28:], uint16(len(f.name)))
	util.LittleEndian.PutUint16(b[30:], uint16(len(f.extra)))
	util.LittleEndian.PutUint16(b[32:], uint16(len(f.comment)))
	util.LittleEndian.PutUint32(b[42:], f.offset)
	b = append(b, f.name...)
	b = append(b, f.extra...)
	return append(b, f.comment...)
}
