package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sumulas-rag/api/response"
	"sumulas-rag/logic/pipeline"
	"sumulas-rag/service"
	"sumulas-rag/storage/postgres"
	"sumulas-rag/types"
)

// ChatService 问答事件流
type ChatService interface {
	Ask(ctx context.Context, question string) *pipeline.Stream
}

// RetrievalService 只检索
type RetrievalService interface {
	Search(ctx context.Context, question string, k int) (*service.SearchResult, error)
}

// IngestionService 入库与列表
type IngestionService interface {
	IngestUpload(ctx context.Context, r io.Reader, name string) (service.FileResult, error)
	ListSummaries(ctx context.Context, status string, limit, offset int) ([]postgres.Summary, error)
}

type SumulaHandler struct {
	chatSvc      ChatService
	retrievalSvc RetrievalService
	ingestionSvc IngestionService
}

func NewSumulaHandler(chatSvc ChatService, retrievalSvc RetrievalService, ingestionSvc IngestionService) *SumulaHandler {
	return &SumulaHandler{
		chatSvc:      chatSvc,
		retrievalSvc: retrievalSvc,
		ingestionSvc: ingestionSvc,
	}
}

func (h *SumulaHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ChatStream 以 SSE 推送 details / token / sources / error 事件
func (h *SumulaHandler) ChatStream(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "参数错误: question 不能为空")
		return
	}

	stream := h.chatSvc.Ask(c.Request.Context(), req.Question)
	defer stream.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for ev, err := range stream.Events() {
		if err != nil {
			logrus.WithError(err).Warn(">>> [SSE] stream aborted")
			return
		}
		c.SSEvent(string(ev.Kind()), ev)
		c.Writer.Flush()
	}
}

// Search 只检索，返回结构化查询和切片
func (h *SumulaHandler) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: question 不能为空, k 取值 1-50")
		return
	}

	result, err := h.retrievalSvc.Search(c.Request.Context(), req.Question, req.K)
	if err != nil {
		logrus.WithError(err).Error(">>> [Search] 检索失败")
		switch {
		case errors.Is(err, types.ErrEmptyQuestion):
			response.Fail(c, "参数错误: question 不能为空")
		case errors.Is(err, types.ErrIndexUnavailable), errors.Is(err, types.ErrInferenceUnavailable):
			response.FailWithStatus(c, http.StatusServiceUnavailable, pipeline.FailureMessage)
		default:
			response.FailWithStatus(c, http.StatusInternalServerError, pipeline.FailureMessage)
		}
		return
	}
	response.Success(c, result)
}

// ListSummaries GET /summaries?status=VIGENTE&limit=20&offset=0
func (h *SumulaHandler) ListSummaries(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: limit 必须为正整数")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: offset 必须为非负整数")
		return
	}

	rows, err := h.ingestionSvc.ListSummaries(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		logrus.WithError(err).Error(">>> [Summaries] 查询失败")
		response.FailWithStatus(c, http.StatusInternalServerError, "查询失败")
		return
	}
	response.Success(c, map[string]any{
		"summaries":   rows,
		"total_count": len(rows),
	})
}

// Upload 上传 súmula PDF
func (h *SumulaHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, "文件上传失败或格式错误")
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		response.Fail(c, "未接收到文件，请检查参数名是否为 'file'")
		return
	}

	var results []service.FileResult
	var failFiles []string
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			failFiles = append(failFiles, file.Filename)
			continue
		}
		res, err := h.ingestionSvc.IngestUpload(c.Request.Context(), src, file.Filename)
		src.Close()
		if errors.Is(err, service.ErrIngestionBusy) {
			response.FailWithStatus(c, http.StatusConflict, "入库任务进行中，请稍后再试")
			return
		}
		if err != nil || res.Outcome == service.OutcomeFailed {
			logrus.Warnf(">>> [Upload] 文件 %s 处理失败: %v %s", file.Filename, err, res.Error)
			failFiles = append(failFiles, file.Filename)
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 && len(failFiles) > 0 {
		response.Fail(c, fmt.Sprintf("所有文件处理失败: %v", failFiles))
		return
	}
	response.Success(c, map[string]any{
		"files":       results,
		"total_count": len(results),
		"fail_files":  failFiles,
	})
}
