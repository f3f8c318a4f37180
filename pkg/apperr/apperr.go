package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind: класс ошибки, по нему вызывающий решает что делать.
type Kind int

const (
	KindUnknown Kind = iota
	// Transient: сеть/таймаут/5xx. Повторяем на следующем тике, состояние не трогаем.
	KindTransient
	// Rejection: биржа отказала с кодом.
	KindRejection
	// DataQuality: дыра в свечах или NaN. Тик пропускаем.
	KindDataQuality
	// Configuration: фатально до старта цикла.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejection:
		return "rejection"
	case KindDataQuality:
		return "data_quality"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Code int // код биржи, 0 если нет
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Code != 0 {
		s += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func Transient(err error, msg string) error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

func Rejection(code int, msg string) error {
	return &Error{Kind: KindRejection, Code: code, Msg: msg}
}

func DataQuality(format string, args ...any) error {
	return &Error{Kind: KindDataQuality, Msg: fmt.Sprintf(format, args...)}
}

func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// KindOf проходит цепочку обёрток (pkg/errors тоже умеет Unwrap).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf: код биржи из цепочки, 0 если его нет.
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// Ignorable: отказ биржи с одним из кодов «уже сделано».
func Ignorable(err error, codes ...int) bool {
	if !Is(err, KindRejection) {
		return false
	}
	c := CodeOf(err)
	for _, code := range codes {
		if c == code {
			return true
		}
	}
	return false
}
