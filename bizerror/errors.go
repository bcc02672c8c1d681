package bizerror

import (
	"errors"
	"net/http"

	"flowplan/common"
)

var ErrUnauthenticated = errors.New("unauthenticated")
var ErrForbidden = errors.New("forbidden")

// ErrTooDeep is raised when a template or item tree exceeds the depth guard.
var ErrTooDeep = errors.New("tree too deep")

// ErrCredentialMissing is raised when a user has no AI provider key on file.
var ErrCredentialMissing = errors.New("ai credential missing")

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *common.BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// ErrProviderUnavailable covers network failures and timeouts of the AI provider call.
type ErrProviderUnavailable struct {
	Cause error
}

func (e *ErrProviderUnavailable) Unwrap() error {
	return e.Cause
}
func (e *ErrProviderUnavailable) Error() string {
	if e.Cause != nil {
		return "ai provider unreachable: " + e.Cause.Error()
	}
	return "ai provider unreachable"
}
func (e *ErrProviderUnavailable) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusBadGateway, Code: "agent.provider_unavailable", Message: e.Error()}
}

// ErrProviderRejected covers non-2xx replies from the AI provider,
// subdivided by the reported status.
type ErrProviderRejected struct {
	StatusCode int
	Message    string
}

func (e *ErrProviderRejected) Error() string {
	return "ai provider rejected request: " + e.Message
}
func (e *ErrProviderRejected) Respond() *common.BizErrorDetail {
	code := "agent.provider_rejected"
	switch e.StatusCode {
	case http.StatusUnauthorized:
		code = "agent.provider_auth"
	case http.StatusPaymentRequired:
		code = "agent.provider_payment"
	case http.StatusTooManyRequests:
		code = "agent.provider_rate_limit"
	}
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: code, Message: e.Error(),
		Data: map[string]interface{}{"providerStatus": e.StatusCode}}
}

// ErrMalformedReply means the provider reply could not be parsed into the
// expected shape. Raw carries the original reply text for diagnostics.
type ErrMalformedReply struct {
	Raw string
}

func (e *ErrMalformedReply) Error() string {
	return "ai reply is not a recognizable template"
}
func (e *ErrMalformedReply) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "agent.malformed_reply", Message: e.Error(), Data: e.Raw}
}
