package errors

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Response is the body written for any failed request. It keeps the
// answer/sources shape so clients can always render it.
type Response struct {
	Answer  string    `json:"answer"`
	Sources []string  `json:"sources"`
	Code    ErrorCode `json:"code"`
}

type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Resolve normalizes err, logs it and returns the status and body that
// should be sent back.
func (h *ErrorHandler) Resolve(route string, err error) (int, Response) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(route, status, stdErr)

	message := GenericApology
	if IsClientVisible(stdErr.Code) {
		message = stdErr.Message
	}

	return status, Response{
		Answer:  message,
		Sources: []string{},
		Code:    stdErr.Code,
	}
}

func (h *ErrorHandler) logError(route string, status int, stdErr *StandardError) {
	fields := map[string]interface{}{
		"route":         route,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if status < 500 {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
