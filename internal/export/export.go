// Package export 把当前问答保存为 Markdown 或 HTML 文件
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zacy-Sokach/chatbox/internal/api"
	"github.com/russross/blackfriday/v2"
)

// ErrNothingToExport 当前没有可导出的回答
var ErrNothingToExport = errors.New("no answer to export")

// Markdown 生成问答的 Markdown 文本
// 回答原样放进代码块，保留换行
func Markdown(question, answer string, citations []api.Citation) string {
	var sb strings.Builder
	sb.WriteString("# Q&A\n\n")
	sb.WriteString("## Question\n\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n## Answer\n\n")

	fence := "```"
	for strings.Contains(answer, fence) {
		fence += "`"
	}
	sb.WriteString(fence + "\n")
	sb.WriteString(strings.TrimRight(answer, "\n"))
	sb.WriteString("\n" + fence + "\n")

	if len(citations) > 0 {
		sb.WriteString("\n## Sources\n\n")
		for _, c := range citations {
			fmt.Fprintf(&sb, "%d. %s (chunk %d, score %.4f)\n", c.Rank, c.Source, c.ChunkID, c.Score)
		}
	}
	return sb.String()
}

// HTML 把 Markdown 渲染为 HTML 片段
func HTML(markdown string) []byte {
	return blackfriday.Run([]byte(markdown))
}

// FileName 按时间生成导出文件名
func FileName(now time.Time, format string) string {
	ext := ".md"
	if format == "html" {
		ext = ".html"
	}
	return "answer-" + now.Format("20060102-150405") + ext
}

// WriteFile 写出问答；扩展名为 .html/.htm 时写 HTML，否则写 Markdown
func WriteFile(path, question, answer string, citations []api.Citation) error {
	if answer == "" {
		return ErrNothingToExport
	}

	content := []byte(Markdown(question, answer, citations))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		content = HTML(string(content))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建导出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	return nil
}
