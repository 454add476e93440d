package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Zacy-Sokach/chatbox/internal/utils"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL 未配置时使用的本地问答服务地址
	DefaultBaseURL = "http://127.0.0.1:5000"

	chatPath   = "/api/chat"
	healthPath = "/health"
)

// APIError 表示问答服务返回了非 2xx 状态码
// Error() 的格式固定为 "HTTP <status>: <body>"，直接展示给用户
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// 全局共享的HTTP客户端，实现连接池化
var (
	sharedHTTPClient *http.Client
	httpClientOnce   sync.Once
)

// getSharedHTTPClient 返回共享的HTTP客户端实例
// 不设置整体 Timeout：问答耗时取决于后端模型，只限制建连和握手
func getSharedHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		sharedHTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	})
	return sharedHTTPClient
}

// ClientOption 客户端可选配置
type ClientOption func(*Client)

// WithDoer 替换底层 HTTP 执行器，例如带重试的客户端
func WithDoer(d utils.Doer) ClientOption {
	return func(c *Client) {
		c.client = d
	}
}

// WithLogger 设置调试日志
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client 问答服务客户端
type Client struct {
	baseURL string
	client  utils.Doer
	logger  *slog.Logger
}

// NewClient 创建问答服务客户端
// baseURL 由调用方显式传入，为空时回退到 DefaultBaseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		client:  getSharedHTTPClient(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL 返回当前使用的服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask 发送一次问答请求，不做重试
func (c *Client) Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	var chatResp ChatResponse
	if err := c.do(httpReq, &chatResp); err != nil {
		return nil, err
	}
	return &chatResp, nil
}

// Health 查询服务健康状态
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	var health HealthResponse
	if err := c.do(httpReq, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// do 执行请求：2xx 解码到 out，其它状态码把响应体原样放进 APIError
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
