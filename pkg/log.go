package pkg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/alchemy/rotoslog"
	"github.com/phsym/console-slog"
	"m7s.live/probe/pkg/config"
)

const TraceLevel = slog.Level(-8)

const logTimeFormat = "2006-01-02 15:04:05.000"

var _ slog.Handler = (*MultiLogHandler)(nil)

func ParseLevel(level string) slog.Level {
	var lv slog.LevelVar
	if level == "trace" {
		lv.Set(TraceLevel)
	} else {
		lv.UnmarshalText([]byte(level))
	}
	return lv.Level()
}

// NewLogger 按配置创建日志：控制台输出到 w（为 nil 时使用 stderr），设置了 Path 时追加滚动文件输出
func NewLogger(conf config.Log, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(conf.Level)
	handler := &MultiLogHandler{}
	handler.SetLevel(level)
	handler.Add(console.NewHandler(w, &console.HandlerOptions{NoColor: conf.NoColor, Level: level, TimeFormat: logTimeFormat}))
	if conf.Path != "" {
		builder := func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
			return console.NewHandler(w, &console.HandlerOptions{NoColor: true, Level: level, TimeFormat: logTimeFormat})
		}
		fileHandler, err := rotoslog.NewHandler(rotoslog.LogHandlerBuilder(builder), rotoslog.LogDir(conf.Path), rotoslog.MaxFileSize(conf.Size), rotoslog.DateTimeLayout(conf.Formatter), rotoslog.MaxRotatedFiles(conf.MaxFiles))
		if err != nil {
			return nil, err
		}
		handler.Add(fileHandler)
	}
	return slog.New(handler), nil
}

// MultiLogHandler 将日志分发给多个 handler。
//
// WithAttrs/WithGroup 派生出的 handler 不向父节点登记，而是在父节点的 handler 列表
// 变化（Add 使 gen 变化）后按需重建，可以在多个 goroutine 中同时派生和写日志。
type MultiLogHandler struct {
	mu          sync.Mutex
	handlers    []slog.Handler // 只整体替换，不原地修改
	gen         uint64
	parent      *MultiLogHandler
	derive      func(slog.Handler) slog.Handler
	parentLevel *slog.LevelVar
	level       *slog.LevelVar
}

// Add 只应在根 handler 上调用，派生 handler 会在下一条日志时同步。
func (m *MultiLogHandler) Add(h slog.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(slices.Clip(m.handlers), h)
	m.gen++
}

func (m *MultiLogHandler) SetLevel(level slog.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.level == nil {
		m.level = new(slog.LevelVar)
	}
	m.level.Set(level)
}

func (m *MultiLogHandler) snapshot() ([]slog.Handler, uint64) {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.handlers, m.gen
	}
	parent, gen := m.parent.snapshot()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		handlers := make([]slog.Handler, len(parent))
		for i, h := range parent {
			handlers[i] = m.derive(h)
		}
		m.handlers, m.gen = handlers, gen
	}
	return m.handlers, m.gen
}

func (m *MultiLogHandler) levelVar() *slog.LevelVar {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.level != nil {
		return m.level
	}
	return m.parentLevel
}

// Enabled implements slog.Handler.
func (m *MultiLogHandler) Enabled(_ context.Context, l slog.Level) bool {
	if lv := m.levelVar(); lv != nil {
		return l >= lv.Level()
	}
	return l >= slog.LevelInfo
}

// Handle implements slog.Handler.
func (m *MultiLogHandler) Handle(ctx context.Context, rec slog.Record) error {
	handlers, _ := m.snapshot()
	for _, h := range handlers {
		if err := h.Handle(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiLogHandler) child(derive func(slog.Handler) slog.Handler) *MultiLogHandler {
	handlers, gen := m.snapshot()
	result := &MultiLogHandler{
		handlers:    make([]slog.Handler, len(handlers)),
		gen:         gen,
		parent:      m,
		derive:      derive,
		parentLevel: m.levelVar(),
	}
	for i, h := range handlers {
		result.handlers[i] = derive(h)
	}
	return result
}

// WithAttrs implements slog.Handler.
func (m *MultiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.child(func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

// WithGroup implements slog.Handler.
func (m *MultiLogHandler) WithGroup(name string) slog.Handler {
	return m.child(func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}
