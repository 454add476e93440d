package api

// ChatRequest 问答请求体，Message 为去除首尾空白后的非空问题
type ChatRequest struct {
	Message string `json:"message"`
	TopK    int    `json:"top_k,omitempty"`
}

// ChatResponse 问答响应体，缺失的 answer 字段按空字符串处理
type ChatResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations,omitempty"`
}

// Citation 回答引用的资料片段
type Citation struct {
	Rank    int     `json:"rank"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}
