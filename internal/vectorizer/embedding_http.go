// Package vectorizer 封装外部文本向量化服务 (OpenAI兼容embeddings端点)
// 并在本地计算余弦相似度
package vectorizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"career-engine-go/internal/config"
)

// EmbeddingVectorizer 调用OpenAI兼容的embeddings端点获取文本向量
type EmbeddingVectorizer struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewEmbeddingVectorizer 创建向量化客户端
func NewEmbeddingVectorizer(cfg config.VectorizerConfig) (*EmbeddingVectorizer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("向量化服务base_url不能为空")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EmbeddingVectorizer{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// embeddingRequest OpenAI兼容的embeddings请求结构
type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse OpenAI兼容的embeddings响应结构
type embeddingResponse struct {
	Data  []embeddingEntry `json:"data"`
	Model string           `json:"model"`
	Error *apiError        `json:"error,omitempty"`
}

type embeddingEntry struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// apiError 服务端在200响应内携带的API级错误
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// EmbedStrings 将一批文本转换为向量，顺序与输入一致
func (v *EmbeddingVectorizer) EmbedStrings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	reqBody := embeddingRequest{Input: texts, Model: v.model}
	if v.dimensions > 0 {
		reqBody.Dimensions = v.dimensions
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("embeddings调用失败, 状态码: %d, 类型: %s, 错误: %s",
				resp.StatusCode, apiErr.Type, apiErr.Message)
		}
		return nil, fmt.Errorf("embeddings调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("embeddings返回错误: %s (code=%s)", parsed.Error.Message, parsed.Error.Code)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings返回数量不符: 期望%d, 实际%d", len(texts), len(parsed.Data))
	}

	// 响应按index归位，不依赖服务端顺序
	out := make([][]float64, len(texts))
	for _, entry := range parsed.Data {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings返回非法index: %d", entry.Index)
		}
		out[entry.Index] = entry.Embedding
	}
	return out, nil
}

// Similarity 计算两段文本的余弦相似度，返回[0,1]
// 一次批量请求同时向量化两段文本，零向量（无方差文本）的相似度定义为0
func (v *EmbeddingVectorizer) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := v.EmbedStrings(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("embeddings返回数量不符: 期望2, 实际%d", len(vectors))
	}
	return CosineSimilarity(vectors[0], vectors[1]), nil
}

// CosineSimilarity 余弦相似度，负值裁剪到0，零向量记0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
