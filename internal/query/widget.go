// Package query 实现问答组件的状态机：校验输入、发起一次请求、展示结果
package query

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Zacy-Sokach/chatbox/internal/api"
)

// FallbackErrorText 错误没有描述时展示的文字
const FallbackErrorText = "Request failed"

// Answerer 问答服务，*api.Client 实现了该接口
type Answerer interface {
	Ask(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Submission 一次提交，ID 单调递增
type Submission struct {
	ID      uint64
	Request api.ChatRequest
}

// Outcome 一次提交的执行结果
type Outcome struct {
	ID        uint64
	Answer    string
	Citations []api.Citation
	Err       error
}

// Option 组件可选配置
type Option func(*Widget)

// WithTopK 请求中附带 top_k，<= 0 时不发送
func WithTopK(k int) Option {
	return func(w *Widget) {
		w.topK = k
	}
}

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) {
		w.logger = logger
	}
}

// Widget 问答组件
//
// Begin 和 Resolve 只能在同一个事件循环里调用；Execute 只读取构造后不再变化的字段，
// 可以放到后台 goroutine 执行。
type Widget struct {
	answerer Answerer
	topK     int
	logger   *slog.Logger

	input  string
	state  State
	latest uint64
}

// New 创建问答组件，初始状态为 Idle
func New(answerer Answerer, opts ...Option) *Widget {
	w := &Widget{
		answerer: answerer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    Idle(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetInput 更新输入框内容
func (w *Widget) SetInput(text string) {
	w.input = text
}

// Input 当前输入框内容
func (w *Widget) Input() string {
	return w.input
}

// State 当前显示状态
func (w *Widget) State() State {
	return w.state
}

// Begin 校验输入并进入 Pending
// 输入去除空白后为空时返回 false，状态保持不变。
// 上一次提交尚未完成时也允许再次提交，旧提交的结果会在 Resolve 时被丢弃。
func (w *Widget) Begin() (Submission, bool) {
	message := strings.TrimSpace(w.input)
	if message == "" {
		return Submission{}, false
	}

	w.latest++
	w.state = Pending()

	sub := Submission{
		ID:      w.latest,
		Request: api.ChatRequest{Message: message},
	}
	if w.topK > 0 {
		sub.Request.TopK = w.topK
	}
	w.logger.Info("submission started", "id", sub.ID, "chars", len(message))
	return sub, true
}

// Execute 执行一次请求，不修改组件状态
func (w *Widget) Execute(ctx context.Context, sub Submission) Outcome {
	resp, err := w.answerer.Ask(ctx, sub.Request)
	if err != nil {
		return Outcome{ID: sub.ID, Err: err}
	}
	if resp == nil {
		return Outcome{ID: sub.ID}
	}
	return Outcome{ID: sub.ID, Answer: resp.Answer, Citations: resp.Citations}
}

// Resolve 应用执行结果，只接受最新一次提交的结果
func (w *Widget) Resolve(o Outcome) bool {
	if o.ID != w.latest || !w.state.IsPending() {
		w.logger.Info("submission discarded", "id", o.ID, "latest", w.latest)
		return false
	}

	if o.Err != nil {
		w.state = Errored(DescribeError(o.Err))
		w.logger.Warn("submission failed", "id", o.ID, "error", o.Err)
		return true
	}

	w.state = Answered(o.Answer, o.Citations)
	w.logger.Info("submission resolved", "id", o.ID, "chars", len(o.Answer))
	return true
}

// Submit 同步完成一次提交，返回结束后的状态
func (w *Widget) Submit(ctx context.Context) State {
	sub, ok := w.Begin()
	if !ok {
		return w.state
	}
	w.Resolve(w.Execute(ctx, sub))
	return w.state
}

// DescribeError 把错误转成展示文字
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackErrorText
}
