package box

import (
	"fmt"

	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/util"
)

// aligned(8) class FileTypeBox extends Box(‘ftyp’) {
// 	unsigned int(32) major_brand;
// 	unsigned int(32) minor_version;
// 	unsigned int(32) compatible_brands[]; // to end of the box
// }

type FileTypeBox struct {
	Type             BoxType // ftyp or styp
	MajorBrand       BoxType
	MinorVersion     uint32
	CompatibleBrands []BoxType
}

func (ftyp *FileTypeBox) BoxType() BoxType {
	return ftyp.Type
}

// HasBrand reports whether brand is the major brand or one of the compatible brands.
func (ftyp *FileTypeBox) HasBrand(brand BoxType) bool {
	if ftyp.MajorBrand == brand {
		return true
	}
	for _, b := range ftyp.CompatibleBrands {
		if b == brand {
			return true
		}
	}
	return false
}

func decodeFtyp(ctx *DecodeContext, payload []byte) (IBox, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, need at least 8", pkg.ErrMalformedBox, ctx.Type, len(payload))
	}
	if (len(payload)-8)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes of compatible brands is not a multiple of 4", pkg.ErrMalformedBox, len(payload)-8)
	}
	b := util.Buffer(payload)
	ftyp := &FileTypeBox{
		Type:             ctx.Type,
		MajorBrand:       BoxType(b.ReadN(4)),
		MinorVersion:     b.ReadUint32(),
		CompatibleBrands: make([]BoxType, 0, b.Len()/4),
	}
	for b.CanReadN(4) {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, BoxType(b.ReadN(4)))
	}
	return ftyp, nil
}
