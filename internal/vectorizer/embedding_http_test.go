package vectorizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"career-engine-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	// 同向向量相似度为1
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	// 正交向量相似度为0
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	// 反向向量裁剪到0而不是-1
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	// 零向量（无方差文本）定义为0
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}), 1e-9)
	// 维度不一致按0处理
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}), 1e-9)
}

func TestEmbeddingVectorizer_Similarity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// 故意倒序返回，验证按index归位
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingEntry{
				{Index: 1, Embedding: []float64{0, 1, 0}},
				{Index: 0, Embedding: []float64{0, 1, 0}},
			},
		})
	}))
	defer server.Close()

	v, err := NewEmbeddingVectorizer(config.VectorizerConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 2,
	})
	require.NoError(t, err)

	sim, err := v.Similarity(context.Background(), "resume text", "job text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestEmbeddingVectorizer_ServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited","type":"rate_limit_error"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	v, err := NewEmbeddingVectorizer(config.VectorizerConfig{BaseURL: server.URL, TimeoutSeconds: 2})
	require.NoError(t, err)

	_, err = v.Similarity(context.Background(), "a", "b")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEmbeddingVectorizer_CountMismatchIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingEntry{{Index: 0, Embedding: []float64{1}}},
		})
	}))
	defer server.Close()

	v, err := NewEmbeddingVectorizer(config.VectorizerConfig{BaseURL: server.URL, TimeoutSeconds: 2})
	require.NoError(t, err)

	_, err = v.Similarity(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestEmbeddingVectorizer_EmptyInput(t *testing.T) {
	v, err := NewEmbeddingVectorizer(config.VectorizerConfig{BaseURL: "http://localhost:9091"})
	require.NoError(t, err)

	vectors, err := v.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
