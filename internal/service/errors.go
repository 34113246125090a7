package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstream           = errors.New("upstream failure")
)

// ValidationError 指明出错的输入字段。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ReorderError 列出未能写入排序的 id。
// 失败之前已更新的行不会回滚。
type ReorderError struct {
	Updated int
	Failed  []string
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder: %d updated, failed ids: %s", e.Updated, strings.Join(e.Failed, ", "))
}

func (e *ReorderError) Is(target error) bool {
	return target == ErrUpstream
}
