package loaders

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// MetaKeyFileName 文件名（不含目录），查重和 source_name 用
const MetaKeyFileName = file.MetaKeyFileName

// PDFLoader 本地 PDF -> 单个 Document（整份文件）
type PDFLoader struct {
	loader document.Loader
	parser parser.Parser
}

func NewPDFLoader(ctx context.Context) (*PDFLoader, error) {
	// pdf解析器
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("init pdf parser failed: %w", err)
	}
	l, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      p,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader failed: %w", err)
	}
	return &PDFLoader{loader: l, parser: p}, nil
}

// Load 解析一个 PDF，多页内容拼成一个 Document
func (l *PDFLoader) Load(ctx context.Context, path string) (*schema.Document, error) {
	docs, err := l.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return nil, fmt.Errorf("parse pdf failed: %w", err)
	}
	return merge(filepath.Base(path), docs), nil
}

// Parse 解析上传的 PDF 内容，name 作为 source_name
func (l *PDFLoader) Parse(ctx context.Context, r io.Reader, name string) (*schema.Document, error) {
	docs, err := l.parser.Parse(ctx, r, parser.WithURI(name))
	if err != nil {
		return nil, fmt.Errorf("parse pdf failed: %w", err)
	}
	return merge(filepath.Base(name), docs), nil
}

func merge(name string, docs []*schema.Document) *schema.Document {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return &schema.Document{
		ID:       name,
		Content:  strings.Join(parts, "\n\n"),
		MetaData: map[string]any{MetaKeyFileName: name},
	}
}

// ListPDFs 列出目录下的 pdf 文件（不递归），按文件名排序
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
