package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Code int         `json:"code"` // 0:成功, -1:失败
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

func Fail(c *gin.Context, msg string) {
	FailWithStatus(c, http.StatusOK, msg)
}

// FailWithStatus 后端依赖不可用等情况需要非 200 状态码
func FailWithStatus(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{
		Code: -1,
		Msg:  msg,
		Data: nil,
	})
}
