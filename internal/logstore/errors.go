package logstore

import "errors"

// ErrLogFile wraps errors reading or opening the underlying log file.
var ErrLogFile = errors.New("log file error")

// ErrValidation wraps errors in caller-supplied search parameters (e.g.
// invalid regex) detected before any scanning begins.
var ErrValidation = errors.New("validation error")
