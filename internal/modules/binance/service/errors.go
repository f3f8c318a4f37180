package service

import (
	"fmt"
	"net/http"

	"perp_bot/pkg/apperr"
)

// Коды Binance, которые нам важны.
const (
	CodeDisconnected       = -1001
	CodeTooManyRequests    = -1003
	CodeTimeout            = -1007
	CodeInvalidTimestamp   = -1021
	CodeUnknownOrder       = -2011 // отмена: ордер уже не существует
	CodeOrderDoesNotExist  = -2013
	CodeMarginTypeNoChange = -4046
)

var transientCodes = map[int]bool{
	CodeDisconnected:     true,
	CodeTooManyRequests:  true,
	CodeTimeout:          true,
	CodeInvalidTimestamp: true,
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// decodeError раскладывает ответ биржи по классам ошибок.
func decodeError(status int, body []byte, op string) error {
	var ae apiError
	_ = unmarshal(body, &ae)
	msg := ae.Msg
	if msg == "" {
		msg = fmt.Sprintf("http %d: %s", status, truncateBody(body))
	}
	msg = op + ": " + msg

	switch {
	case status >= 500,
		status == http.StatusTooManyRequests,
		status == http.StatusTeapot, // 418: IP забанен за превышение лимитов
		transientCodes[ae.Code]:
		return &apperr.Error{Kind: apperr.KindTransient, Code: ae.Code, Msg: msg}
	}
	return apperr.Rejection(ae.Code, msg)
}

func truncateBody(b []byte) string {
	if len(b) > 256 {
		return string(b[:256]) + "..."
	}
	return string(b)
}
