package responses

// SuccessEnvelope wraps every 2xx body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the machine readable part of an error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every 4xx and 5xx body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
