package types

// SuccessEnvelope is the uniform happy-path wrapper: the payload always
// lives under "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the uniform failure wrapper.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
