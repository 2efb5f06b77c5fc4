package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"career-engine-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClassifier_Classify(t *testing.T) {
	// 模拟推理服务
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"python", "sql"}, req.Skills)

		json.NewEncoder(w).Encode(classifyResponse{
			Predictions: map[string]float64{
				"data scientist":    82.5,
				"backend developer": 61.0,
			},
		})
	}))
	defer server.Close()

	c, err := NewHTTPClassifier(config.ClassifierConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 2,
	})
	require.NoError(t, err)

	predictions, err := c.Classify(context.Background(), []string{"python", "sql"})
	require.NoError(t, err)
	assert.InDelta(t, 82.5, predictions["data scientist"], 1e-9)
	assert.InDelta(t, 61.0, predictions["backend developer"], 1e-9)
}

func TestHTTPClassifier_ServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"model not loaded","code":"MODEL_UNAVAILABLE"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewHTTPClassifier(config.ClassifierConfig{BaseURL: server.URL, TimeoutSeconds: 2})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), []string{"python"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_UNAVAILABLE")
}

func TestHTTPClassifier_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporary failure", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(classifyResponse{
			Predictions: map[string]float64{"data scientist": 75},
		})
	}))
	defer server.Close()

	c, err := NewHTTPClassifier(config.ClassifierConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 2,
		MaxRetries:     2,
	})
	require.NoError(t, err)

	predictions, err := c.Classify(context.Background(), []string{"python"})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, predictions["data scientist"], 1e-9)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPClassifier_EmptyPredictionsIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Predictions: map[string]float64{}})
	}))
	defer server.Close()

	c, err := NewHTTPClassifier(config.ClassifierConfig{BaseURL: server.URL, TimeoutSeconds: 2})
	require.NoError(t, err)

	// 分类器契约要求至少返回一个职业，空结果按不可用处理
	_, err = c.Classify(context.Background(), []string{"python"})
	assert.Error(t, err)
}

func TestNewHTTPClassifier_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClassifier(config.ClassifierConfig{})
	assert.Error(t, err)
}
