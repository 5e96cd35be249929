// 包 logx 是对 zerolog 的薄封装：
// - 支持级别/格式/语言/颜色配置
// - pretty 格式输出本地化等级标签（[调试]/[信息]/[警告]/[错误]）
// - 通过 Debugf/Infof/Warnf/Errorf 暴露，调用方无需直接依赖 zerolog
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const timeLayout = "2006-01-02 15:04:05"

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	current.Store(&l)
}

// Init 根据 level/format/locale/colorMode 初始化全局日志器。
// json 直接输出 zerolog JSON；pretty 为本地化美化输出；其他取值按无色文本输出。
func Init(level, format, locale, colorMode string) {
	InitWriter(os.Stdout, level, format, locale, colorMode)
}

// InitWriter 与 Init 相同，但输出到指定 Writer。
func InitWriter(w io.Writer, level, format, locale, colorMode string) {
	if w == nil {
		w = os.Stdout
	}
	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		out = w
	case "pretty", "":
		out = NewPrettyWriter(w, locale, colorMode)
	default:
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: timeLayout}
	}
	l := zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()
	current.Store(&l)
}

// L 返回当前日志器，便于需要结构化字段的调用方。
func L() *zerolog.Logger { return current.Load() }

// parseLevel 将字符串级别解析为 zerolog.Level。
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "silent", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// 便捷函数：格式化并按级别输出
func Debugf(format string, v ...any) { L().Debug().Msgf(format, v...) }
func Infof(format string, v ...any)  { L().Info().Msgf(format, v...) }
func Warnf(format string, v ...any)  { L().Warn().Msgf(format, v...) }
func Errorf(format string, v ...any) { L().Error().Msgf(format, v...) }

// NewPrettyWriter 创建本地化美化输出：时间 + 等级标签 + 消息 + k=v 字段。
func NewPrettyWriter(w io.Writer, locale, colorMode string) zerolog.ConsoleWriter {
	if locale == "" {
		locale = "zh-CN"
	}
	color := shouldColor(w, colorMode)
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: timeLayout,
		FormatLevel: func(i any) string {
			lvl, _ := zerolog.ParseLevel(fmt.Sprint(i))
			label := levelLabel(locale, lvl)
			if color {
				label = colorize(label, lvl)
			}
			return label
		},
	}
}

// levelLabel 根据语言返回等级标签。
func levelLabel(locale string, l zerolog.Level) string {
	if strings.HasPrefix(strings.ToLower(locale), "zh") {
		switch l {
		case zerolog.DebugLevel:
			return "[调试]"
		case zerolog.InfoLevel:
			return "[信息]"
		case zerolog.WarnLevel:
			return "[警告]"
		case zerolog.ErrorLevel:
			return "[错误]"
		default:
			return fmt.Sprintf("[L%d]", l)
		}
	}
	switch l {
	case zerolog.DebugLevel:
		return "[DEBUG]"
	case zerolog.InfoLevel:
		return "[INFO]"
	case zerolog.WarnLevel:
		return "[WARN]"
	case zerolog.ErrorLevel:
		return "[ERROR]"
	default:
		return fmt.Sprintf("[L%d]", l)
	}
}

// shouldColor 判断是否启用颜色：遵循 LOG_COLOR 与 NO_COLOR。
func shouldColor(w io.Writer, mode string) bool {
	if v := os.Getenv("NO_COLOR"); v != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "auto", "":
		// 仅在字符设备上启用彩色输出
		if f, ok := w.(*os.File); ok {
			if fi, err := f.Stat(); err == nil {
				return (fi.Mode() & os.ModeCharDevice) != 0
			}
		}
		return false
	default:
		return false
	}
}

// colorize 按等级包裹 ANSI 颜色码。
func colorize(s string, l zerolog.Level) string {
	code := "0"
	switch l {
	case zerolog.DebugLevel:
		code = "90"
	case zerolog.InfoLevel:
		code = "36"
	case zerolog.WarnLevel:
		code = "33"
	case zerolog.ErrorLevel:
		code = "31"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}
