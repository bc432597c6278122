package processors

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F\x7F]`)
	blankRuns    = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// CleanText 清洗文本，去除可能导致 NaN 的特殊字符；保留换行，抽取时要靠段落定位
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = controlChars.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func Processor(ctx context.Context, src []*schema.Document) ([]*schema.Document, error) {
	// 1. 清洗数据：去除无法处理的字符和空白文档
	var cleanDocs []*schema.Document
	for _, doc := range src {
		// 移除 Null 字节 (常见 PDF 解析错误)
		content := strings.ReplaceAll(doc.Content, "\x00", "")

		// 移除无效的 UTF-8 字符
		if !utf8.ValidString(content) {
			content = strings.ToValidUTF8(content, "")
		}

		content = CleanText(content)

		// 如果内容为空，直接跳过，否则 Embedding 会报错
		if content == "" {
			logrus.Warnf(">>> [Processor] 空文档已跳过: %s", doc.ID)
			continue
		}

		doc.Content = content
		cleanDocs = append(cleanDocs, doc)
	}
	return cleanDocs, nil
}
