package tui

import "github.com/Zacy-Sokach/chatbox/internal/query"

// Message types for tea.Model

// AnswerMsg 一次提交执行完毕
type AnswerMsg struct {
	Outcome query.Outcome
}

type ExportSuccessMsg struct {
	FilePath string
}

type ExportErrorMsg struct {
	Error error
}
