package util

import (
	"errors"
	"strings"
)

var (
	ErrModelNotLoaded      = errors.New("model not loaded")
	ErrStudentNotFound     = errors.New("student not found")
	ErrInvalidObjectID     = errors.New("invalid object id")
	ErrEmptyUpload         = errors.New("no file uploaded")
	ErrUnsupportedUpload   = errors.New("file must be CSV format")
	ErrEmptyRecommendation = errors.New("recommendation has empty fields")
	ErrAuditDisabled       = errors.New("prediction audit is disabled")
)

// MissingFeaturesError 输入记录缺少必需特征
type MissingFeaturesError struct {
	Missing []string
}

func (e *MissingFeaturesError) Error() string {
	return "missing required features: " + strings.Join(e.Missing, ", ")
}
