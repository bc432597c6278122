package transform

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors [][]float64
	err     error
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	return s.vectors, s.err
}

func TestCleanEmbedder(t *testing.T) {
	inner := &stubEmbedder{vectors: [][]float64{{0.1, math.NaN()}, {math.Inf(1), 0.3}}}

	out, err := NewCleanEmbedder(inner).EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0}, {0, 0.3}}, out)
}

func TestCleanEmbedder_Error(t *testing.T) {
	boom := errors.New("down")
	_, err := NewCleanEmbedder(&stubEmbedder{err: boom}).EmbedStrings(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}
