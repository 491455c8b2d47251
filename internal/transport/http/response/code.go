package response

import (
	"errors"
	"net/http"

	"toob-api/internal/domain"
)

// 错误分类 → HTTP 状态码
var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrDuplicateField, http.StatusBadRequest},
	{domain.ErrAlreadyExists, http.StatusBadRequest},
	{domain.ErrNotInList, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUpstream, http.StatusInternalServerError},
	{domain.ErrInternal, http.StatusInternalServerError},
}

// StatusMsgMap 没有业务信息时的默认文案
var StatusMsgMap = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusNotFound:              "not found",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "too many requests, please try again later",
	http.StatusInternalServerError:   "server error",
	http.StatusServiceUnavailable:    "server busy",
	http.StatusGatewayTimeout:        "request timeout",
}

func StatusOf(err error) int {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}
