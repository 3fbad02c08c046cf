package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/query"
)

// Envelope is the uniform response body. Every endpoint returns it.
type Envelope struct {
	IsStatus   bool              `json:"isStatus"`
	Msg        string            `json:"msg"`
	Data       interface{}       `json:"data"`
	Results    *int              `json:"results,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
}

func respond(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Envelope{IsStatus: true, Msg: msg, Data: data})
}

func respondList(c *gin.Context, msg string, data interface{}, results int, pagination *query.Pagination) {
	c.JSON(http.StatusOK, Envelope{
		IsStatus:   true,
		Msg:        msg,
		Data:       data,
		Results:    &results,
		Pagination: pagination,
	})
}

// respondErr maps the error taxonomy onto HTTP statuses. Internal failures
// hide their detail behind a generic message and get logged server-side.
func respondErr(c *gin.Context, logger *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, Envelope{IsStatus: false, Msg: apperrors.PublicMessage(err)})
}
