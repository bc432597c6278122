package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"sumulas-rag/config"
	"sumulas-rag/logic/pipeline"
	"sumulas-rag/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	config.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := service.NewApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("init failed: %v", err)
	}
	defer app.Close()

	// 参数即问题；没有参数时进入交互模式
	if flag.NArg() > 0 {
		ask(ctx, app.Chat, strings.Join(flag.Args(), " "))
		return
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "/sair" || question == "/exit" {
			return
		}
		ask(ctx, app.Chat, question)
		if ctx.Err() != nil {
			return
		}
	}
}

func ask(ctx context.Context, chat *service.ChatService, question string) {
	stream := chat.Ask(ctx, question)
	for ev, err := range stream.Events() {
		if err != nil {
			fmt.Fprintln(os.Stderr, renderError(pipeline.NewErrorEvent(err)))
			return
		}
		switch e := ev.(type) {
		case pipeline.DetailsEvent:
			fmt.Println(renderDetails(e))
		case pipeline.TokenEvent:
			fmt.Print(e.Text)
		case pipeline.SourcesEvent:
			fmt.Println()
			fmt.Println(renderSources(e))
		case pipeline.ErrorEvent:
			fmt.Println()
			fmt.Fprintln(os.Stderr, renderError(e))
		}
	}
}
