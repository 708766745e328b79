// Package testutil 测试辅助工具
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger 返回写到 t.Log() 的logger，只有测试失败或 -v 时才会显示
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
