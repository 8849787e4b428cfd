package evaluations

import "errors"

var ErrNotFound = errors.New("not found")

const (
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeJudgeTimeout = "JUDGE_TIMEOUT"
	ErrorCodeJudgeSchema  = "JUDGE_SCHEMA_MISMATCH"
	ErrorCodeStorage      = "STORAGE_ERROR"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)
