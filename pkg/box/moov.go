package box

import (
	"fmt"

	"m7s.live/probe/pkg"
)

// MovieBox holds the decoded mvhd and every child result in order,
// including children with no decoder, which keep only their raw chunk.
type MovieBox struct {
	Mvhd     *MovieHeaderBox
	Children []Result
}

func (moov *MovieBox) BoxType() BoxType {
	return TypeMOOV
}

// Child returns the first child result of type t.
func (moov *MovieBox) Child(t BoxType) (Result, bool) {
	for _, c := range moov.Children {
		if c.Type == t {
			return c, true
		}
	}
	return Result{}, false
}

func decodeMoov(ctx *DecodeContext, payload []byte) (IBox, error) {
	w, childCtx, err := ctx.Children(payload)
	if err != nil {
		return nil, err
	}
	moov := &MovieBox{}
	for w.Next() {
		res := childCtx.DecodeChunk(w.Chunk())
		if res.Type == TypeMVHD {
			if res.Err != nil {
				return nil, res.Err
			}
			if moov.Mvhd != nil {
				return nil, fmt.Errorf("%w: second mvhd at offset %d", pkg.ErrMalformedBox, res.Offset)
			}
			mvhd, ok := res.Box.(*MovieHeaderBox)
			if !ok {
				return nil, fmt.Errorf("%w: mvhd decoded as %T", pkg.ErrMalformedBox, res.Box)
			}
			moov.Mvhd = mvhd
		}
		moov.Children = append(moov.Children, res)
	}
	if err = w.Err(); err != nil {
		return nil, err
	}
	if moov.Mvhd == nil {
		return nil, fmt.Errorf("%w: mvhd", pkg.ErrMissingRequiredChild)
	}
	return moov, nil
}
