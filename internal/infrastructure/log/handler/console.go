package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

// 在前缀中展示、不再重复输出的属性
const (
	keyModule    = "module"
	keyComponent = "component"
	keyService   = "service"
	keyRequestID = "request_id"
)

// ConsoleHandler 面向终端的单行日志：
//
//	INFO 2024-05-01T10:00:00.000+08:00 [dataset/loader] (req=abc) Dataset files loaded turns=42
//
// 输出不是终端时不加颜色
type ConsoleHandler struct {
	opts  *slog.HandlerOptions
	mu    *sync.Mutex
	out   io.Writer
	color bool
	attrs []slog.Attr
	group string
}

// NewConsoleHandler 创建控制台处理器
func NewConsoleHandler(out io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ConsoleHandler{
		opts:  opts,
		mu:    &sync.Mutex{},
		out:   out,
		color: isTerminal(out),
	}
}

// Enabled 级别过滤，未配置时为 Info
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle 输出一行日志
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		module, component, requestID string
		rest                         []slog.Attr
	)
	collect := func(a slog.Attr) {
		switch a.Key {
		case keyModule:
			module = a.Value.String()
		case keyComponent:
			component = a.Value.String()
		case keyRequestID:
			requestID = a.Value.String()
		case keyService:
		default:
			rest = append(rest, a)
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		collect(a)
		return true
	})

	var b strings.Builder
	if h.color {
		b.WriteString(levelColor(r.Level))
	}
	b.WriteString(r.Level.String())
	if h.color {
		b.WriteString(colorReset)
	}
	b.WriteByte(' ')
	b.WriteString(r.Time.Format("2006-01-02T15:04:05.000Z07:00"))

	switch {
	case module != "" && component != "":
		fmt.Fprintf(&b, " [%s/%s]", module, component)
	case module != "":
		fmt.Fprintf(&b, " [%s]", module)
	}
	if requestID != "" {
		fmt.Fprintf(&b, " (req=%s)", requestID)
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range rest {
		fmt.Fprintf(&b, " %s=%s", a.Key, formatValue(a.Value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// WithAttrs 返回带预置属性的副本
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup 返回带分组前缀的副本
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// formatValue 含空白的字符串加引号，保持一行一条
func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
