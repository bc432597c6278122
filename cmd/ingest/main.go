package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"sumulas-rag/config"
	"sumulas-rag/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	dir := flag.String("dir", "", "Directory of súmula PDFs (default: ingestion.pdf_dir)")
	collection := flag.String("collection", "", "Milvus collection / ES index (default: retrieval.collection)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	config.InitLogger(cfg.LogLevel)
	if *collection != "" {
		cfg.Retrieval.Collection = *collection
		cfg.Elasticsearch.Index = *collection
	}
	if *dir == "" {
		*dir = cfg.Ingestion.PDFDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := service.NewApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("init failed: %v", err)
	}
	defer app.Close()

	report, err := app.Ingestion.IngestDir(ctx, *dir)
	if err != nil {
		logrus.Errorf("ingest failed: %v", err)
		app.Close()
		os.Exit(1)
	}
	for _, f := range report.Files {
		line := fmt.Sprintf("%-8s %s", f.Outcome, f.SourceName)
		if f.Chunks > 0 {
			line += fmt.Sprintf(" (%d chunks)", f.Chunks)
		}
		if f.Error != "" {
			line += ": " + f.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("indexed=%d skipped=%d failed=%d chunks=%d took=%v\n",
		report.Indexed, report.Skipped, report.Failed, report.Chunks, report.Took)
}
