package box

import (
	"fmt"
	"log/slog"

	"m7s.live/probe/pkg"
	"m7s.live/probe/pkg/config"
)

const defaultMaxDepth = 8

// DecodeFunc decodes the payload of one box type.
type DecodeFunc func(ctx *DecodeContext, payload []byte) (IBox, error)

// Registry maps box types to decoders. It must not be modified while
// decodes are running.
type Registry struct {
	decoders map[BoxType]DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[BoxType]DecodeFunc)}
}

func (r *Registry) Register(t BoxType, fn DecodeFunc) {
	if r.decoders == nil {
		r.decoders = make(map[BoxType]DecodeFunc)
	}
	r.decoders[t] = fn
}

func (r *Registry) Lookup(t BoxType) (fn DecodeFunc, ok bool) {
	fn, ok = r.decoders[t]
	return
}

// Decode decodes a single payload of type t with the default configuration.
func (r *Registry) Decode(payload []byte, t BoxType) (IBox, error) {
	ctx := &DecodeContext{Registry: r, Logger: slog.Default()}
	return ctx.decode(Chunk{Type: t, Payload: payload})
}

var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(TypeFTYP, decodeFtyp)
	DefaultRegistry.Register(TypeSTYP, decodeFtyp)
	DefaultRegistry.Register(TypeMOOV, decodeMoov)
	DefaultRegistry.Register(TypeMVHD, decodeMvhd)
}

// Decode decodes a payload with DefaultRegistry.
func Decode(payload []byte, t BoxType) (IBox, error) {
	return DefaultRegistry.Decode(payload, t)
}

// DecodeContext is passed to every DecodeFunc. Containers use it to walk
// and decode their children.
type DecodeContext struct {
	Registry *Registry
	Config   config.MP4
	Logger   *slog.Logger
	Type     BoxType // type of the box being decoded
	Offset   int64   // absolute offset of the payload being decoded
	Depth    int
}

func (ctx *DecodeContext) maxDepth() int {
	if ctx.Config.MaxDepth > 0 {
		return ctx.Config.MaxDepth
	}
	return defaultMaxDepth
}

// A nil Registry or Logger means DefaultRegistry or slog.Default.
func (ctx *DecodeContext) registry() *Registry {
	if ctx.Registry == nil {
		return DefaultRegistry
	}
	return ctx.Registry
}

func (ctx *DecodeContext) logger() *slog.Logger {
	if ctx.Logger == nil {
		return slog.Default()
	}
	return ctx.Logger
}

func (ctx *DecodeContext) decode(c Chunk) (IBox, error) {
	fn, ok := ctx.registry().Lookup(c.Type)
	if !ok {
		return nil, &Error{Offset: c.Offset, Type: c.Type, Err: pkg.ErrUnknownBoxType}
	}
	child := *ctx
	child.Type = c.Type
	child.Offset = c.Offset + int64(c.HeaderSize)
	b, err := fn(&child, c.Payload)
	if err != nil {
		return nil, &Error{Offset: c.Offset, Type: c.Type, Err: err}
	}
	return b, nil
}

// DecodeChunk decodes c and records a failure in the result instead of
// returning it, so siblings can still be decoded.
func (ctx *DecodeContext) DecodeChunk(c Chunk) (res Result) {
	res.Chunk = c
	if res.Box, res.Err = ctx.decode(c); res.Err != nil {
		ctx.logger().Debug("box skipped", "type", c.Type.String(), "offset", c.Offset, "size", c.Size, "depth", ctx.Depth, "error", res.Err)
	}
	return
}

// Children walks payload as a sequence of child boxes one level deeper.
func (ctx *DecodeContext) Children(payload []byte) (*Walker, *DecodeContext, error) {
	if ctx.Depth+1 > ctx.maxDepth() {
		return nil, nil, fmt.Errorf("%w: nesting deeper than %d", pkg.ErrMalformedBox, ctx.maxDepth())
	}
	child := *ctx
	child.Depth++
	return newWalker(payload, ctx.Offset, ctx.Config), &child, nil
}
