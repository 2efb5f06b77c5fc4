// Package classifier 封装外部统计分类器的HTTP推理客户端
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"career-engine-go/internal/config"
	"career-engine-go/internal/logger"
)

// HTTPClassifier 通过HTTP JSON调用外部推理服务
// 契约：POST {base_url}/classify，入参技能集合，出参 career → 置信度(0-100)
// 服务不可用时调用方降级为均匀基准置信度，客户端只负责如实上报错误
type HTTPClassifier struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
}

// NewHTTPClassifier 创建分类器客户端
func NewHTTPClassifier(cfg config.ClassifierConfig) (*HTTPClassifier, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("分类器base_url不能为空")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPClassifier{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// classifyRequest 推理请求结构
type classifyRequest struct {
	Skills []string `json:"skills"`
}

// classifyResponse 推理响应结构
type classifyResponse struct {
	// Predictions career → 置信度(0-100)
	Predictions map[string]float64 `json:"predictions"`
	Error       *apiError          `json:"error,omitempty"`
}

// apiError 服务端在200响应内携带的API级错误
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Classify 调用推理服务获取各职业的基准置信度
// 超时/非200/空结果都视为失败返回错误，瞬时失败按配置做有限次重试
func (c *HTTPClassifier) Classify(ctx context.Context, skills []string) (map[string]float64, error) {
	jsonData, err := json.Marshal(classifyRequest{Skills: skills})
	if err != nil {
		return nil, fmt.Errorf("序列化推理请求失败: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Ctx(ctx).Debug().
				Int("attempt", attempt).
				Err(lastErr).
				Msg("重试分类器调用")
		}
		predictions, err := c.doClassify(ctx, jsonData)
		if err == nil {
			return predictions, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// doClassify 单次推理调用
func (c *HTTPClassifier) doClassify(ctx context.Context, jsonData []byte) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/classify", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
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
			return nil, fmt.Errorf("分类器调用失败, 状态码: %d, 错误: %s, Code: %s",
				resp.StatusCode, apiErr.Message, apiErr.Code)
		}
		return nil, fmt.Errorf("分类器调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("分类器返回错误: %s (code=%s)", parsed.Error.Message, parsed.Error.Code)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("分类器返回空预测结果")
	}
	return parsed.Predictions, nil
}
