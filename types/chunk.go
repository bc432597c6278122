package types

import (
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/schema"
)

// ChunkType 切片类型，对应súmula文档的三个段落
type ChunkType string

const (
	ChunkPrincipalContent    ChunkType = "principal_content"
	ChunkNormativeReferences ChunkType = "normative_references"
	ChunkPrecedents          ChunkType = "precedents"
)

// ChunkTypes returns the section types in document order.
func ChunkTypes() []ChunkType {
	return []ChunkType{ChunkPrincipalContent, ChunkNormativeReferences, ChunkPrecedents}
}

// Valid reports whether t is one of the known section types.
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkPrincipalContent, ChunkNormativeReferences, ChunkPrecedents:
		return true
	}
	return false
}

// 索引中的元数据字段名 (Milvus / ES / filter schema 共用)
const (
	FieldSourceName    = "source_name"
	FieldSummaryNumber = "summary_number"
	FieldStatus        = "status"
	FieldStatusDate    = "status_date"
	FieldStatusYear    = "status_year"
	FieldChunkType     = "chunk_type"
	FieldChunkIndex    = "chunk_index"
	FieldContent       = "content"
)

// ChunkMetadata provenance of a chunk, written at ingestion time.
type ChunkMetadata struct {
	SourceName    string    `json:"source_name"`
	SummaryNumber string    `json:"summary_number"`
	Status        string    `json:"status"`
	StatusDate    string    `json:"status_date"` // DD/MM/AA
	StatusYear    int       `json:"status_year"`
	ChunkType     ChunkType `json:"chunk_type"`
	ChunkIndex    int       `json:"chunk_index"`
}

// Value returns the metadata value stored under an index field name.
// Integer fields come back as int, the rest as string.
func (m ChunkMetadata) Value(field string) (any, bool) {
	switch field {
	case FieldSourceName:
		return m.SourceName, true
	case FieldSummaryNumber:
		return m.SummaryNumber, true
	case FieldStatus:
		return m.Status, true
	case FieldStatusDate:
		return m.StatusDate, true
	case FieldStatusYear:
		return m.StatusYear, true
	case FieldChunkType:
		return string(m.ChunkType), true
	case FieldChunkIndex:
		return m.ChunkIndex, true
	}
	return nil, false
}

// MetaData 写入 schema.Document.MetaData 的形式
func (m ChunkMetadata) MetaData() map[string]any {
	return map[string]any{
		FieldSourceName:    m.SourceName,
		FieldSummaryNumber: m.SummaryNumber,
		FieldStatus:        m.Status,
		FieldStatusDate:    m.StatusDate,
		FieldStatusYear:    m.StatusYear,
		FieldChunkType:     string(m.ChunkType),
		FieldChunkIndex:    m.ChunkIndex,
	}
}

// MetadataFromMap reads metadata back from a document. Milvus returns integers
// as int64 and Elasticsearch as float64; both are accepted.
func MetadataFromMap(md map[string]any) ChunkMetadata {
	return ChunkMetadata{
		SourceName:    asString(md[FieldSourceName]),
		SummaryNumber: asString(md[FieldSummaryNumber]),
		Status:        asString(md[FieldStatus]),
		StatusDate:    asString(md[FieldStatusDate]),
		StatusYear:    asInt(md[FieldStatusYear]),
		ChunkType:     ChunkType(asString(md[FieldChunkType])),
		ChunkIndex:    asInt(md[FieldChunkIndex]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Chunk 检索返回的切片，检索后不可修改
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"relevance_score"`
}

// ChunkFromDocument converts a retrieved document, using score as relevance.
func ChunkFromDocument(doc *schema.Document, score float64) Chunk {
	return Chunk{
		ID:       doc.ID,
		Text:     doc.Content,
		Metadata: MetadataFromMap(doc.MetaData),
		Score:    score,
	}
}

// SourceRef is the per-chunk entry of a sources event.
type SourceRef struct {
	SourceName    string    `json:"source_name"`
	SummaryNumber string    `json:"summary_number"`
	ChunkType     ChunkType `json:"chunk_type"`
	Status        string    `json:"status"`
	StatusDate    string    `json:"status_date"`
	StatusYear    int       `json:"status_year"`
}

// Source builds the sources-event entry for the chunk.
func (c Chunk) Source() SourceRef {
	return SourceRef{
		SourceName:    c.Metadata.SourceName,
		SummaryNumber: c.Metadata.SummaryNumber,
		ChunkType:     c.Metadata.ChunkType,
		Status:        c.Metadata.Status,
		StatusDate:    c.Metadata.StatusDate,
		StatusYear:    c.Metadata.StatusYear,
	}
}

// Sources maps chunks to source refs, keeping retrieval order.
func Sources(chunks []Chunk) []SourceRef {
	refs := make([]SourceRef, 0, len(chunks))
	for _, c := range chunks {
		refs = append(refs, c.Source())
	}
	return refs
}
