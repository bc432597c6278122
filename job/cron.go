package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"sumulas-rag/service"
)

// Ingester 入库任务
type Ingester interface {
	IngestDir(ctx context.Context, dir string) (*service.IngestReport, error)
}

// StartCronJob 定时重扫 PDF 目录，新文件自动入库；cron 表达式为空不启动
func StartCronJob(spec, dir string, ingester Ingester) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New()

	_, err := c.AddFunc(spec, func() { rescan(context.Background(), dir, ingester) })
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	logrus.Infof(">>> [Cron] 已启动，spec=%q dir=%s", spec, dir)
	return c, nil
}

func rescan(ctx context.Context, dir string, ingester Ingester) {
	report, err := ingester.IngestDir(ctx, dir)
	if errors.Is(err, service.ErrIngestionBusy) {
		logrus.Info(">>> [Cron] 上一次入库尚未结束，跳过")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("[Cron] Error")
		return
	}
	logrus.Infof("[Cron] 新入库 %d 份 súmula，跳过 %d 份，失败 %d 份", report.Indexed, report.Skipped, report.Failed)
}
