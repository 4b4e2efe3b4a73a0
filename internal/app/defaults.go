package app

import "github.com/bft-labs/tracesink/internal/ports"

// loggingErrorHandler reports swallowed failures at error level.
type loggingErrorHandler struct {
	logger ports.Logger
}

func (h loggingErrorHandler) HandleError(err error, code ports.ErrorCode) {
	h.logger.Error("sink failure", ports.String("op", code.String()), ports.Err(err))
}
