package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("display name already taken")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrInvalidDisplayName = fmt.Errorf("invalid display name")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrEmptyContent       = fmt.Errorf("empty message content")
	ErrUnknownUser        = fmt.Errorf("unknown user")
)
