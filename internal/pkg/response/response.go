package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// SuccessStatus is Success with a non-200 status code (e.g. 201 Created).
func SuccessStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"code": 0, "message": "", "data": data})
}

func Error(c *gin.Context, status int, message string) {
	proxyutil.FailJson(c, status, AsCodeErr(uint32(status), message))
}
