package types

// SumulaRawData LLM 从 PDF 文本抽取的原始结果
type SumulaRawData struct {
	Metadados RawMetadata `json:"metadados"`
	Chunks    []RawChunk  `json:"chunks"`
}

type RawMetadata struct {
	NumSumula   any    `json:"num_sumula" jsonschema:"description=número da súmula, apenas dígitos,required"`
	StatusAtual string `json:"status_atual" jsonschema:"description=status atual em maiúsculas"`
	DataStatus  string `json:"data_status" jsonschema:"description=data do status no formato DD/MM/AA"`
}

type RawChunk struct {
	ChunkType string `json:"chunk_type" jsonschema:"description=principal_content, normative_references ou precedents"`
	Text      string `json:"text"`
}
