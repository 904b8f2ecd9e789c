package recording

// Error is a recording failure with a stable code the API layer can map
// to an HTTP status.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := e.Code + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeAlreadyRecording = "ALREADY_RECORDING"
	ErrCodeNotRecording     = "NOT_RECORDING"
	ErrCodeWriterInit       = "WRITER_INIT_FAILED"
	ErrCodeNoDevice         = "NO_DEVICE"
	ErrCodeConversionFailed = "CONVERSION_FAILED"
	ErrCodeInvalidParams    = "INVALID_PARAMS"
)

// NewError builds an Error; cause may be nil.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
