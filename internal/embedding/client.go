// Package embedding calls the external vectorizer service and falls
// back to a deterministic hash-based vector when it is unreachable or
// slow (spec §5 "may block up to 30 s", §6 "POST /embed_text").
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	// Dimensions matches the Chunk.embedding vector index declared by
	// the schema manager (spec §4.3).
	Dimensions = 512
	timeout    = 30 * time.Second
)

// Client wraps an OpenAI-embeddings-compatible endpoint. ML_SERVICE_URL
// is passed as the client's base URL so a self-hosted vectorizer
// speaking the OpenAI embeddings wire format can sit behind it.
type Client struct {
	oai    *openai.Client
	model  string
	logger *logrus.Entry
}

// NewClient builds a Client. When baseURL is empty, Embed always
// returns the deterministic fallback (no network calls attempted).
func NewClient(baseURL, apiKey, model string, logger *logrus.Logger) *Client {
	var oai *openai.Client
	if baseURL != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		oai = openai.NewClientWithConfig(cfg)
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Client{oai: oai, model: model, logger: logger.WithField("component", "embedding")}
}

// Embed returns one 512-dim vector per input text. On timeout, error,
// or no configured endpoint, each text gets a deterministic hash-based
// fallback vector instead of failing the caller (spec §5, §6 "failure
// is soft").
func (c *Client) Embed(ctx context.Context, texts []string) [][]float32 {
	if c.oai != nil {
		if vecs, ok := c.embedRemote(ctx, texts); ok {
			return vecs
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = FallbackVector(t)
	}
	return out
}

func (c *Client) embedRemote(ctx context.Context, texts []string) ([][]float32, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.oai.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		c.logger.WithError(err).Warn("embedding request failed, using fallback vectors")
		return nil, false
	}
	if len(resp.Data) != len(texts) {
		c.logger.Warn("embedding response size mismatch, using fallback vectors")
		return nil, false
	}
	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		out[i] = padOrTruncate(d.Embedding)
	}
	return out, true
}

func padOrTruncate(v []float32) []float32 {
	if len(v) == Dimensions {
		return v
	}
	out := make([]float32, Dimensions)
	n := len(v)
	if n > Dimensions {
		n = Dimensions
	}
	copy(out, v[:n])
	return out
}

// FallbackVector deterministically derives a 512-dim unit-ish vector
// from sha256(text), so repeated ingests of unchanged content produce
// identical embeddings without calling out (spec §5 "Determinism").
func FallbackVector(text string) []float32 {
	seed := sha256.Sum256([]byte(text))
	out := make([]float32, Dimensions)
	for i := range out {
		byteIdx := (i * 4) % len(seed)
		chunk := make([]byte, 4)
		for j := 0; j < 4; j++ {
			chunk[j] = seed[(byteIdx+j)%len(seed)]
		}
		v := binary.BigEndian.Uint32(chunk)
		// Map into [-1, 1] so the fallback looks like a normalized embedding.
		out[i] = float32(v)/float32(1<<31) - 1
	}
	return out
}
