package trace

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/sirupsen/logrus"
)

const (
	runType = "SumulaRAG"

	// ComponentPipeline 编排阶段的 Component 名，区别于 ChatModel / Embedding 等组件自身的回调
	ComponentPipeline components.Component = "Pipeline"
)

// Run 一次问答的追踪信息
type Run struct {
	Name       string
	Tags       []string
	Collection string
	K          int
}

type startKey struct{}

// NewLogHandler 把 eino 回调写成 logrus 日志
func NewLogHandler(run Run, question string) callbacks.Handler {
	base := logrus.Fields{
		"run":        run.Name,
		"tags":       run.Tags,
		"collection": run.Collection,
		"k":          run.K,
		"question":   question,
	}
	entry := func(info *callbacks.RunInfo) *logrus.Entry {
		e := logrus.WithFields(base)
		if info != nil {
			e = e.WithFields(logrus.Fields{"stage": info.Name, "component": string(info.Component)})
		}
		return e
	}

	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			entry(info).Debug(">>> [Trace] start")
			return context.WithValue(ctx, startKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			e := entry(info).WithField("took", took(ctx))
			if info != nil && info.Component == ComponentPipeline {
				e.WithField("output", output).Info(">>> [Trace] end")
			} else {
				e.Debug(">>> [Trace] end")
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			entry(info).WithError(err).WithField("took", took(ctx)).Warn(">>> [Trace] error")
			return ctx
		}).
		Build()
}

func took(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}

// Start 为一次运行挂上回调，之后的 Stage 以及组件内部回调都会复用
func Start(ctx context.Context, run Run, question string) context.Context {
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      run.Name,
		Type:      runType,
		Component: ComponentPipeline,
	}, NewLogHandler(run, question))
}

// Stage 开始一个阶段；没有 Start 过的 ctx 不产生任何回调
func Stage(ctx context.Context, name string, input any) context.Context {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      runType,
		Component: ComponentPipeline,
	})
	return callbacks.OnStart(ctx, input)
}

func End(ctx context.Context, output any) {
	callbacks.OnEnd(ctx, output)
}

func Fail(ctx context.Context, err error) {
	callbacks.OnError(ctx, err)
}
