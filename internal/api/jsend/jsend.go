// Package jsend renders the response envelopes used by every endpoint:
//
//	{"status":"success","data":{...},"message":"..."}
//	{"status":"fail","data":{"message":"..."}}      4xx
//	{"status":"error","message":"...","detail":"..."} 5xx
package jsend

import (
	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// SuccessResponse wraps a successful payload.
type SuccessResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// FailData is the payload of a fail envelope.
type FailData struct {
	Message string `json:"message"`
}

// FailResponse reports a client error.
type FailResponse struct {
	Status string   `json:"status"`
	Data   FailData `json:"data"`
}

// ErrorResponse reports a server error. Detail is only populated outside production.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func Success(c echo.Context, code int, data any) error {
	return c.JSON(code, SuccessResponse{Status: StatusSuccess, Data: data})
}

// SuccessWithMessage is Success with a human-readable message.
func SuccessWithMessage(c echo.Context, code int, data any, message string) error {
	return c.JSON(code, SuccessResponse{Status: StatusSuccess, Data: data, Message: message})
}

func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, FailResponse{Status: StatusFail, Data: FailData{Message: message}})
}

func Error(c echo.Context, code int, message, detail string) error {
	return c.JSON(code, ErrorResponse{Status: StatusError, Message: message, Detail: detail})
}
