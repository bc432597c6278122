package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Retrieval.K)
	assert.Equal(t, 50, cfg.Retrieval.MaxK)
	assert.Equal(t, "sumulas_jornada", cfg.Retrieval.Collection)
	assert.Equal(t, "sumulas_jornada", cfg.Elasticsearch.Index)
	assert.Equal(t, 0.6, cfg.Retrieval.DenseWeight)
	assert.Equal(t, 0.4, cfg.Retrieval.SparseWeight)
	assert.Equal(t, " E ", cfg.Display.And)
	assert.Equal(t, "Nenhum filtro aplicado.", cfg.Display.NoFilter)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
retrieval:
  k: 8
  collection: custom
display:
  and: " AND "
`), 0o644))
	t.Setenv("RETRIEVAL_K", "3")
	t.Setenv("MY_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, 3, cfg.Retrieval.K, "env wins over file")
	assert.Equal(t, "custom", cfg.Elasticsearch.Index)
	assert.Equal(t, " AND ", cfg.Display.And)

	cfg.LLM.APIKeyEnv = "MY_KEY"
	assert.Equal(t, "sk-test", cfg.LLM.APIKey())
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
