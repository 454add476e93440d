package query

import "github.com/Zacy-Sokach/chatbox/internal/api"

// Phase 问答组件所处阶段
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseAnswered
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseAnswered:
		return "answered"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// State 组件的显示状态
// 回答和错误分属不同阶段，二者不会同时非空
type State struct {
	phase     Phase
	answer    string
	citations []api.Citation
	err       string
}

// Idle 初始状态
func Idle() State { return State{phase: PhaseIdle} }

// Pending 请求进行中
func Pending() State { return State{phase: PhasePending} }

// Answered 收到回答，answer 可以为空字符串
func Answered(answer string, citations []api.Citation) State {
	return State{phase: PhaseAnswered, answer: answer, citations: citations}
}

// Errored 请求失败
func Errored(message string) State {
	return State{phase: PhaseErrored, err: message}
}

func (s State) Phase() Phase { return s.phase }

func (s State) IsPending() bool { return s.phase == PhasePending }

// AnswerText 仅在 Answered 阶段非空
func (s State) AnswerText() string {
	if s.phase != PhaseAnswered {
		return ""
	}
	return s.answer
}

// Citations 仅在 Answered 阶段返回引用
func (s State) Citations() []api.Citation {
	if s.phase != PhaseAnswered {
		return nil
	}
	return s.citations
}

// ErrorText 仅在 Errored 阶段非空
func (s State) ErrorText() string {
	if s.phase != PhaseErrored {
		return ""
	}
	return s.err
}
