package domain

import "errors"

// HTTP 層はこれらのセンチネルを errors.Is で判定し、ステータスコードに変換します。
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrUserExists         = errors.New("user already exists")
	ErrServiceUnavailable = errors.New("generative service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from generative service")
	ErrGenerationFailed   = errors.New("generation failed")
)
