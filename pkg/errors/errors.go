package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode int

const (
	// Kafka相关错误 1xxx
	ErrCodeKafkaConnect   ErrorCode = 1001
	ErrCodeKafkaPoll      ErrorCode = 1002
	ErrCodeCancelled      ErrorCode = 1003
	ErrCodeConsumerClosed ErrorCode = 1004

	// 输出相关错误 2xxx
	ErrCodeOutput ErrorCode = 2001

	// 配置相关错误 5xxx
	ErrCodeConfigNotFound ErrorCode = 5001
	ErrCodeConfigLoad     ErrorCode = 5002
	ErrCodeConfigParse    ErrorCode = 5003
	ErrCodeConfigValidate ErrorCode = 5004
)

var codeNames = map[ErrorCode]string{
	ErrCodeKafkaConnect:   "ConnectionError",
	ErrCodeKafkaPoll:      "PollError",
	ErrCodeCancelled:      "CancelledError",
	ErrCodeConsumerClosed: "ConsumerClosed",
	ErrCodeOutput:         "OutputError",
	ErrCodeConfigNotFound: "ConfigNotFound",
	ErrCodeConfigLoad:     "ConfigLoadError",
	ErrCodeConfigParse:    "ConfigParseError",
	ErrCodeConfigValidate: "ConfigValidateError",
}

// String 返回错误码名称
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ConsumerError 自定义错误类型
type ConsumerError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ConsumerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code ErrorCode, message string) *ConsumerError {
	return &ConsumerError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code ErrorCode, message string, err error) *ConsumerError {
	return &ConsumerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 返回错误链上第一个ConsumerError的错误码
func CodeOf(err error) (ErrorCode, bool) {
	var ce *ConsumerError
	if stderrors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}

// Is 判断错误链上是否存在指定错误码
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var ce *ConsumerError
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Err
	}
	return false
}

// IsRetryable 判断错误是否可由调用方重试
func IsRetryable(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}

	switch code {
	case ErrCodeKafkaConnect, ErrCodeKafkaPoll:
		return true
	default:
		return false
	}
}
