package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sumulas-rag/types"
	"sumulas-rag/vars"
)

// 发送给 LLM 的正文上限（按 rune）
const maxContent = 12000

var extractTmpl = template.Must(template.New("extract").Parse(vars.EXTRACT))

var (
	digits   = regexp.MustCompile(`\d+`)
	dateYear = regexp.MustCompile(`^\s*\d{1,2}/\d{1,2}/(\d{2}|\d{4})\s*$`)
)

// Extract 调用 LLM 抽取元数据与分段，输出无法解析返回 ErrIngestionParseFailure
func Extract(ctx context.Context, chatModel model.BaseChatModel, doc *schema.Document, now time.Time) (*types.SumulaRawData, error) {
	content := []rune(doc.Content)
	if len(content) > maxContent {
		content = content[:maxContent]
	}

	var buf bytes.Buffer
	err := extractTmpl.Execute(&buf, map[string]string{
		"CurrentDate": now.Format("2006-01-02"),
		"Content":     string(content),
	})
	if err != nil {
		return nil, err
	}

	resp, err := chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(buf.String()),
	}, model.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInferenceUnavailable, err)
	}
	return Parse(resp.Content)
}

// Parse 清洗 ```json 包裹并反序列化
func Parse(raw string) (*types.SumulaRawData, error) {
	jsonStr := strings.TrimSpace(raw)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")

	var info types.SumulaRawData
	if err := json.Unmarshal([]byte(jsonStr), &info); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal failed: %v, raw: %s", types.ErrIngestionParseFailure, err, jsonStr)
	}
	if SummaryNumber(info.Metadados.NumSumula) == "" {
		return nil, fmt.Errorf("%w: num_sumula missing", types.ErrIngestionParseFailure)
	}
	return &info, nil
}

// SummaryNumber "Súmula nº 070" / 70 -> "70"
func SummaryNumber(v any) string {
	var s string
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		s = strconv.Itoa(int(n))
	case string:
		s = n
	default:
		s = fmt.Sprint(v)
	}
	m := digits.FindString(s)
	if m == "" {
		return ""
	}
	if i, err := strconv.Atoi(m); err == nil {
		return strconv.Itoa(i)
	}
	return m
}

// StatusYear DD/MM/AA -> AAAA；两位年份不晚于当前年份时视为本世纪
func StatusYear(date string, now time.Time) int {
	m := dateYear.FindStringSubmatch(date)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	if len(m[1]) == 4 {
		return y
	}
	if y <= now.Year()%100 {
		return 2000 + y
	}
	return 1900 + y
}

// BuildChunks 抽取结果 -> 待索引切片（最多 3 个，按文档顺序，未知类型丢弃）
func BuildChunks(info *types.SumulaRawData, sourceName, docID string, now time.Time) []*schema.Document {
	byType := make(map[types.ChunkType]string, len(info.Chunks))
	for _, c := range info.Chunks {
		t := types.ChunkType(strings.ToLower(strings.TrimSpace(c.ChunkType)))
		text := strings.TrimSpace(c.Text)
		if !t.Valid() || text == "" {
			if c.ChunkType != "" {
				logrus.Debugf(">>> [Extract] 丢弃切片 type=%q source=%s", c.ChunkType, sourceName)
			}
			continue
		}
		if _, dup := byType[t]; !dup {
			byType[t] = text
		}
	}

	base := types.ChunkMetadata{
		SourceName:    sourceName,
		SummaryNumber: SummaryNumber(info.Metadados.NumSumula),
		Status:        strings.ToUpper(strings.TrimSpace(info.Metadados.StatusAtual)),
		StatusDate:    strings.TrimSpace(info.Metadados.DataStatus),
		StatusYear:    StatusYear(info.Metadados.DataStatus, now),
	}

	var chunks []*schema.Document
	for _, t := range types.ChunkTypes() {
		text, ok := byType[t]
		if !ok {
			continue
		}
		meta := base
		meta.ChunkType = t
		meta.ChunkIndex = len(chunks)

		md := meta.MetaData()
		md["doc_id"] = docID
		chunks = append(chunks, &schema.Document{
			ID:       uuid.New().String(),
			Content:  text,
			MetaData: md,
		})
	}
	return chunks
}
