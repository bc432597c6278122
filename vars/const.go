package vars

import (
	"os"
	"strconv"
)

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt 同 GetEnv，非法数字返回默认值
func GetEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

const (
	// 模型名称
	NOMIC    = "nomic-embed-text"
	BGEM3    = "bge-m3"
	QWEN7B   = "qwen2.5:7b"
	QWEN3B   = "qwen2.5:3b"
	GPT4MINI = "gpt-4o-mini"

	// 模型提供方
	PROVIDER_OLLAMA = "ollama"
	PROVIDER_OPENAI = "openai"

	// Milvus Collection / ES index 名称
	COLLECTION = "sumulas_jornada"

	// 默认召回数量
	TOPK = 5
	// 单次请求召回上限
	MAXK = 50

	// SSE 事件名
	EVENT_DETAILS = "details"
	EVENT_TOKEN   = "token"
	EVENT_SOURCES = "sources"
	EVENT_ERROR   = "error"
)

// 环境变量配置（支持 Docker 部署）
var (
	// OLLAMA
	OLLAMA_PATH = GetEnv("OLLAMA_PATH", "http://localhost:11434")

	// OPENAI
	OPENAI_API_KEY = GetEnv("OPENAI_API_KEY", "")

	// PG
	PGUSER = GetEnv("PGUSER", "postgres")
	PGPWD  = GetEnv("PGPWD", "postgres")
	PGDB   = GetEnv("PGDB", "sumulas")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// Milvus
	MILVUSADDR = GetEnv("MILVUSADDR", "127.0.0.1:19530")

	// ES
	ESADDR = GetEnv("ESADDR", "http://localhost:9200")

	// Redis
	REDISADDR = GetEnv("REDISADDR", "localhost:6379")
)

// 提示词
const (
	// SELFQUERY 自查询：问题 -> {query, filter, limit}
	SELFQUERY = `
Você é um assistente que transforma perguntas sobre súmulas em consultas estruturadas.
Data atual: {{.CurrentDate}}.

Conteúdo dos documentos:
{{.Content}}

Atributos que podem ser filtrados (use SOMENTE estes nomes e operadores):
{{.Attributes}}

Regras:
1. **query**: texto para busca semântica, sem os termos já usados no filtro. Nunca vazio.
2. **filter**: expressão de filtro ou "NO_FILTER" quando a pergunta não cita nenhum atributo.
   - Comparação: {"comparator": "eq|ne|lt|lte|gt|gte", "attribute": "<nome>", "value": <valor>}
   - Composição: {"operator": "and|or|not", "arguments": [<expressões>]}
   - Datas: 'antes de AAAA' => {"comparator": "lt", "attribute": "status_year", "value": AAAA};
     'depois de AAAA' => {"comparator": "gt", "attribute": "status_year", "value": AAAA}.
     status_date aceita apenas igualdade.
   - status sempre em maiúsculas (VIGENTE, REVOGADA, ALTERADA).
3. **limit**: número de súmulas pedido explicitamente pelo usuário, senão null.

Exemplos:
Pergunta: "Quais os precedentes da súmula 70 vigente?"
{"query": "precedentes", "filter": {"operator": "and", "arguments": [{"comparator": "eq", "attribute": "summary_number", "value": "70"}, {"comparator": "eq", "attribute": "status", "value": "VIGENTE"}]}, "limit": null}

Pergunta: "súmulas antes de 2010"
{"query": "súmulas", "filter": {"comparator": "lt", "attribute": "status_year", "value": 2010}, "limit": null}

Pergunta: "Cite 3 súmulas sobre licitação"
{"query": "licitação", "filter": "NO_FILTER", "limit": 3}

Responda apenas com o JSON. Sem markdown.
`

	// GROUNDING 回答生成系统提示词 (eino FString: {question} {context})
	GROUNDING = `Você é um Assistente Jurídico Especialista, focado em fornecer informações precisas e literais sobre as súmulas do tribunal.

Você receberá uma pergunta do usuário e um conjunto de trechos de documentos.

Sua diretriz principal é a FIDELIDADE AO TEXTO. Responda utilizando os trechos exatos e literais das súmulas fornecidos no contexto. NÃO FAÇA RESUMOS NEM PARÁFRASES do conteúdo principal da súmula.

Estruture sua resposta da seguinte maneira:

1. **Introdução Direta**: comece com uma frase que responda diretamente à pergunta. Ex.: "Os seguintes precedentes foram encontrados para a Súmula 70:".
2. **Apresentação Organizada**: para cada súmula ou trecho relevante do contexto, crie uma seção separada.
3. **Formato de Citação**: use o título "**Conforme a Súmula Nº [Número da Súmula]:**".
4. **Extração Literal**: abaixo do título, insira o trecho literal e completo em bloco de citação (markdown >).

Restrições obrigatórias:
- Fundamente TODA a resposta exclusivamente no contexto fornecido.
- Não adicione opiniões, interpretações, exemplos ou informações externas.
- Se o contexto não contiver a resposta, diga apenas que não encontrou informações sobre o tema.

Contexto:
{context}`

	// GROUNDING_HUMAN 用户输入
	GROUNDING_HUMAN = `Pergunta: {question}`

	// NOINFO 无检索结果时的固定回答
	NOINFO = "Não encontrei informações sobre esse tema nas súmulas disponíveis."

	// EXTRACT 入库时从 PDF 文本抽取元数据与分段
	EXTRACT = `
Você é um especialista em extração de dados de súmulas do Tribunal de Contas.
Data atual: {{.CurrentDate}}.

Extraia do texto abaixo, em JSON:

1. **metadados**:
   - "num_sumula": número da súmula, apenas dígitos (ex.: "70").
   - "status_atual": status atual em maiúsculas (VIGENTE, REVOGADA, ALTERADA...).
   - "data_status": data do status no formato DD/MM/AA.
2. **chunks**: até 3 trechos, copiados literalmente do texto:
   - {"chunk_type": "principal_content", "text": "<enunciado da súmula>"}
   - {"chunk_type": "normative_references", "text": "<referências normativas>"}
   - {"chunk_type": "precedents", "text": "<precedentes>"}
   Omita o trecho que não existir no documento.

Texto:
{{.Content}}

Responda apenas com o JSON:
{"metadados": {"num_sumula": "", "status_atual": "", "data_status": ""}, "chunks": []}
`
)
