package logger

import (
	"io"
	"log"
	"strings"
	"sync/atomic"
)

// 中文说明：
// 轻量日志封装：全局级别门控，减少刷屏；Payload 用于大体积
// 请求/响应体的 debug 级输出（带截断）。

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel 按名称设置全局级别，未知名称回落到 info。
func SetLevel(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		current.Store(int32(LevelDebug))
	case "info":
		current.Store(int32(LevelInfo))
	case "warn", "warning":
		current.Store(int32(LevelWarn))
	case "error":
		current.Store(int32(LevelError))
	default:
		current.Store(int32(LevelInfo))
	}
}

// SetOutput 重定向底层输出（测试用）。
func SetOutput(w io.Writer) { log.SetOutput(w) }

func enabled(l Level) bool { return Level(current.Load()) <= l }

func Debugf(format string, v ...any) {
	if enabled(LevelDebug) {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Infof(format string, v ...any) {
	if enabled(LevelInfo) {
		log.Printf("[INFO] "+format, v...)
	}
}

func Warnf(format string, v ...any) {
	if enabled(LevelWarn) {
		log.Printf("[WARN] "+format, v...)
	}
}

func Errorf(format string, v ...any) {
	if enabled(LevelError) {
		log.Printf("[ERROR] "+format, v...)
	}
}

const maxPayload = 2048

// Payload 输出大体积请求/响应体（debug 级，超长截断）。
func Payload(tag, body string) {
	if !enabled(LevelDebug) {
		return
	}
	if len(body) > maxPayload {
		body = body[:maxPayload] + "...(truncated)"
	}
	log.Printf("[DEBUG] [%s] %s", tag, body)
}
