package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flowplan/bizerror"
	"flowplan/common"

	"golang.org/x/time/rate"
)

var (
	// ProviderEndpoint is the OpenRouter chat-completions URL; tests point it
	// at a local stub.
	ProviderEndpoint = "https://openrouter.ai/api/v1/chat/completions"

	InvokeChatFunc = InvokeChat

	invokeTimeout = 40 * time.Second

	// one provider call in flight per second with small bursts; retry policy
	// stays with the caller
	providerLimiter = rate.NewLimiter(rate.Every(time.Second), 2)
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// InvokeChat performs one blocking provider call. It holds no database
// resources and honors ctx cancellation on client disconnect.
func InvokeChat(ctx context.Context, apiKey string, request *ChatRequest) (*ChatResponse, error) {
	if err := providerLimiter.Wait(ctx); err != nil {
		return nil, &bizerror.ErrProviderUnavailable{Cause: err}
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+apiKey)

	respBody, err := common.HttpInvokeJson(ctx, http.MethodPost, ProviderEndpoint, headers, string(reqBody))
	if err != nil {
		var invokeErr *common.ErrHttpInvoke
		if errors.As(err, &invokeErr) && invokeErr.StatusCode != 0 {
			message := invokeErr.RespBody
			parsed := providerErrorBody{}
			if json.Unmarshal([]byte(invokeErr.RespBody), &parsed) == nil && parsed.Error.Message != "" {
				message = parsed.Error.Message
			}
			if len(message) > 200 {
				message = message[0:200]
			}
			return nil, &bizerror.ErrProviderRejected{StatusCode: invokeErr.StatusCode, Message: message}
		}
		return nil, &bizerror.ErrProviderUnavailable{Cause: err}
	}

	response := ChatResponse{}
	if err := json.Unmarshal([]byte(respBody), &response); err != nil {
		return nil, &bizerror.ErrMalformedReply{Raw: respBody}
	}
	return &response, nil
}
