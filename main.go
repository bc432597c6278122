package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sumulas-rag/api/handler"
	"sumulas-rag/api/router"
	"sumulas-rag/config"
	"sumulas-rag/job"
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

	// 启动定时任务
	c, err := job.StartCronJob(cfg.Ingestion.Cron, cfg.Ingestion.PDFDir, app.Ingestion)
	if err != nil {
		logrus.Fatal(err)
	}
	if c != nil {
		defer c.Stop()
	}

	h := handler.NewSumulaHandler(app.Chat, app.Retrieval, app.Ingestion)

	r := gin.Default()
	router.RegisterRoutes(r, h)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logrus.Infof("Server running on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown")
	}
}
