package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sirupsen/logrus"
)

// NewClient 连接 Milvus，全局复用
func NewClient(ctx context.Context, addr string) (client.Client, error) {
	logrus.Infof(">>> [Milvus] 正在连接: %s ...", addr)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(connectCtx, client.Config{
		Address: addr,
	})
	if err != nil {
		return nil, fmt.Errorf("连接milvus失败: %w", err)
	}
	logrus.Info(">>> [Milvus] 连接成功")
	return cli, nil
}

// 加载等待参数
var (
	loadTimeout  = 5 * time.Second
	loadInterval = 100 * time.Millisecond
)

// ensureLoaded 确保 Collection 已加载到内存，最多等待 loadTimeout。未加载完成只告警
func ensureLoaded(ctx context.Context, cli client.Client, collection string) bool {
	loadStart := time.Now()
	log := logrus.WithField("collection", collection)
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		// 不中断，继续尝试查询
		log.WithError(err).Warn(">>> [Milvus] LoadCollection warning")
		return false
	}
	deadline := time.Now().Add(loadTimeout)
	for time.Now().Before(deadline) {
		state, err := cli.GetLoadState(ctx, collection, []string{})
		if err != nil {
			log.WithError(err).Warn(">>> [Milvus] GetLoadState failed")
		} else if state == entity.LoadStateLoaded {
			log.Debugf(">>> [Milvus] Collection 加载耗时: %v", time.Since(loadStart))
			return true
		}
		select {
		case <-ctx.Done():
			log.WithError(ctx.Err()).Warn(">>> [Milvus] Collection 加载等待被取消")
			return false
		case <-time.After(loadInterval):
		}
	}
	log.Warnf(">>> [Milvus] Collection 在 %v 内仍未加载完成", loadTimeout)
	return false
}
