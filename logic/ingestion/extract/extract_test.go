package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumulas-rag/types"
)

type replyModel struct {
	reply  string
	err    error
	prompt string
}

func (m *replyModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.prompt = input[len(input)-1].Content
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *replyModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

var now = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

const reply = "```json\n" + `{
  "metadados": {"num_sumula": "Súmula nº 070", "status_atual": "vigente", "data_status": "07/04/14"},
  "chunks": [
    {"chunk_type": "precedents", "text": "Precedentes: ..."},
    {"chunk_type": "principal_content", "text": "  O enunciado.  "},
    {"chunk_type": "resumo", "text": "ignorado"},
    {"chunk_type": "normative_references", "text": ""}
  ]
}` + "\n```"

func TestExtract(t *testing.T) {
	m := &replyModel{reply: reply}

	info, err := Extract(context.Background(), m, &schema.Document{Content: "SÚMULA 70 ..."}, now)
	require.NoError(t, err)
	assert.Contains(t, m.prompt, "SÚMULA 70 ...")
	assert.Contains(t, m.prompt, "2026-10-14")
	assert.Equal(t, "70", SummaryNumber(info.Metadados.NumSumula))
	assert.Len(t, info.Chunks, 4)
}

func TestExtract_Failures(t *testing.T) {
	_, err := Extract(context.Background(), &replyModel{reply: "não sei"}, &schema.Document{}, now)
	assert.ErrorIs(t, err, types.ErrIngestionParseFailure)

	_, err = Extract(context.Background(), &replyModel{reply: `{"metadados":{},"chunks":[]}`}, &schema.Document{}, now)
	assert.ErrorIs(t, err, types.ErrIngestionParseFailure)

	_, err = Extract(context.Background(), &replyModel{err: errors.New("timeout")}, &schema.Document{}, now)
	assert.ErrorIs(t, err, types.ErrInferenceUnavailable)
}

func TestBuildChunks(t *testing.T) {
	info, err := Parse(reply)
	require.NoError(t, err)

	chunks := BuildChunks(info, "Sumula_70.pdf", "doc-1", now)
	require.Len(t, chunks, 2)

	first := types.MetadataFromMap(chunks[0].MetaData)
	assert.Equal(t, types.ChunkPrincipalContent, first.ChunkType)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.Equal(t, "O enunciado.", chunks[0].Content)
	assert.Equal(t, "70", first.SummaryNumber)
	assert.Equal(t, "VIGENTE", first.Status)
	assert.Equal(t, 2014, first.StatusYear)
	assert.Equal(t, "Sumula_70.pdf", first.SourceName)
	assert.Equal(t, "doc-1", chunks[0].MetaData["doc_id"])

	second := types.MetadataFromMap(chunks[1].MetaData)
	assert.Equal(t, types.ChunkPrecedents, second.ChunkType)
	assert.Equal(t, 1, second.ChunkIndex)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestStatusYear(t *testing.T) {
	assert.Equal(t, 2014, StatusYear("07/04/14", now))
	assert.Equal(t, 1999, StatusYear("01/02/99", now))
	assert.Equal(t, 2005, StatusYear("1/2/2005", now))
	assert.Equal(t, 0, StatusYear("ontem", now))
	assert.Equal(t, 0, StatusYear("", now))
}

func TestSummaryNumber(t *testing.T) {
	assert.Equal(t, "70", SummaryNumber(float64(70)))
	assert.Equal(t, "5", SummaryNumber("005"))
	assert.Equal(t, "", SummaryNumber("sem número"))
	assert.Equal(t, "", SummaryNumber(nil))
}
