package service

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/market"
)

var (
	errSystem = errors.New("system error")
	// ErrInvalidRequest reports a request that failed binding.
	ErrInvalidRequest = errors.New("invalid request")
	errInvalidStatus  = errors.New("invalid status filter")
)

var ErrorCode = map[error]int{
	errSystem:            1000,
	ErrInvalidRequest:    1001,
	errInvalidStatus:     1002,
	auth.ErrMissingToken: 1003,
	auth.ErrInvalidToken: 1004,
}

var errorStatus = map[error]int{
	auth.ErrMissingToken: http.StatusUnauthorized,
	auth.ErrInvalidToken: http.StatusUnauthorized,
}

var kindStatus = map[market.Kind]int{
	market.KindValidation:    http.StatusBadRequest,
	market.KindAuthorization: http.StatusForbidden,
	market.KindState:         http.StatusConflict,
	market.KindDuplicate:     http.StatusConflict,
	market.KindConflict:      http.StatusConflict,
	market.KindNotFound:      http.StatusNotFound,
	market.KindTemporal:      http.StatusUnprocessableEntity,
	market.KindArithmetic:    http.StatusUnprocessableEntity,
	market.KindFunds:         http.StatusUnprocessableEntity,
}

// Resolve maps err to its http status, response code and message.
// Errors without a code are reported as a system error.
func Resolve(err error) (int, int, string) {
	var me *market.Error
	if errors.As(err, &me) {
		status, ok := kindStatus[me.Kind()]
		if !ok {
			status = http.StatusBadRequest
		}
		return status, me.Code(), me.Error()
	}

	cause := errors.Cause(err)
	if code, ok := ErrorCode[cause]; ok {
		status, ok := errorStatus[cause]
		if !ok {
			status = http.StatusBadRequest
		}
		return status, code, err.Error()
	}

	return http.StatusInternalServerError, ErrorCode[errSystem], errSystem.Error()
}
