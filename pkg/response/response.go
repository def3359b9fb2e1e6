package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK writes data as the bare JSON body. Resources are not wrapped in an envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, APIError{Code: code, Message: message})
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIError{Code: httpStatus, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, 400, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, 404, message)
}

func MethodNotAllowed(c *gin.Context, message string) {
	Error(c, http.StatusMethodNotAllowed, 405, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, 409, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, 500, message)
}
