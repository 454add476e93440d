package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// NewLogger 创建日志记录器
// TUI 占用了终端，日志只能写文件；debug 关闭时全部丢弃
// path 为空时写到配置目录下的 chatbox_<时间戳>.log
func NewLogger(path string, debug bool) (*slog.Logger, func() error, error) {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	if path == "" {
		var err error
		path, err = ConfigFile(fmt.Sprintf("chatbox_%s.log", time.Now().Format("20060102_150405")))
		if err != nil {
			return nil, nil, fmt.Errorf("获取配置目录失败: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, file.Close, nil
}
