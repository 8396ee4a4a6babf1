package box

import (
	"log/slog"

	"m7s.live/probe/pkg/config"
)

// Parser decodes every top-level box of a buffer.
type Parser struct {
	*slog.Logger
	Registry *Registry
	Config   config.MP4
}

func NewParser(conf config.MP4, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		Logger:   logger.With("parser", "mp4"),
		Registry: DefaultRegistry,
		Config:   conf,
	}
}

// Parse returns one result per top-level box. Decode failures of single boxes
// are kept in Result.Err; a malformed chunk stops the walk and its error is
// returned together with the results of the boxes before it.
func (p *Parser) Parse(buf []byte) (results []Result, err error) {
	ctx := &DecodeContext{
		Registry: p.Registry,
		Config:   p.Config,
		Logger:   p.Logger,
	}
	w := NewWalker(buf, p.Config)
	for w.Next() {
		results = append(results, ctx.DecodeChunk(w.Chunk()))
	}
	if err = w.Err(); err != nil {
		ctx.logger().Warn("walk stopped", "boxes", len(results), "error", err)
	}
	return
}
