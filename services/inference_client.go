package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"golang.org/x/oauth2"

	"aivideo/models"
	"aivideo/utils"
)

// InferenceClient sends one composed message to the hosted model and
// returns the textual reply ("" when the reply has no content)
type InferenceClient interface {
	Complete(ctx context.Context, model string, msg models.OutboundMessage) (string, error)
}

// UpstreamError is a failed round trip to the inference endpoint
type UpstreamError struct {
	StatusCode int // 0 for transport failures
	Status     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("AI API error: %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("AI API error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// InferenceOptions configures ChatCompletionsClient
type InferenceOptions struct {
	BaseURL    string
	CustomerID string
	Tokens     *utils.TokenPool
	Cooldown   time.Duration
	Timeout    time.Duration // 0 leaves the call unbounded
	HTTPClient *http.Client  // base client; http.DefaultClient if nil
}

// ChatCompletionsClient talks to a chat-completions style endpoint
type ChatCompletionsClient struct {
	client   openai.Client
	tokens   *utils.TokenPool
	cooldown time.Duration
	timeout  time.Duration
	base     *http.Client
}

// NewChatCompletionsClient creates a client with retries disabled: each
// submission is exactly one round trip
func NewChatCompletionsClient(opts InferenceOptions) *ChatCompletionsClient {
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	client := openai.NewClient(
		option.WithBaseURL(opts.BaseURL),
		option.WithHeader("customerId", opts.CustomerID),
		option.WithMaxRetries(0),
	)

	return &ChatCompletionsClient{
		client:   client,
		tokens:   opts.Tokens,
		cooldown: opts.Cooldown,
		timeout:  opts.Timeout,
		base:     base,
	}
}

// Complete posts {model, messages:[{role:user, content}]} and returns the
// first choice's content
func (c *ChatCompletionsClient) Complete(ctx context.Context, model string, msg models.OutboundMessage) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.tokens.Acquire()
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	// oauth2 sets "Authorization: Bearer <token>" on top of the base transport
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.base), utils.StaticSource(token))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: []openai.ChatCompletionMessageParamUnion{userMessage(msg)},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params, option.WithHTTPClient(httpClient))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
				log.Printf("[Upstream] token cooling down after status %d", apiErr.StatusCode)
				c.tokens.MarkFailed(token, c.cooldown)
			}
			return "", &UpstreamError{
				StatusCode: apiErr.StatusCode,
				Status:     http.StatusText(apiErr.StatusCode),
				Err:        err,
			}
		}
		return "", &UpstreamError{Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// userMessage converts the composed message into the SDK's union params
func userMessage(msg models.OutboundMessage) openai.ChatCompletionMessageParamUnion {
	if !msg.IsMultipart() {
		return openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: param.NewOpt(msg.Text),
				},
			},
		}
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case models.TextPart:
			parts = append(parts, openai.TextContentPart(p.Text))
		case models.ImagePart:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: p.URL,
			}))
		case models.FilePart:
			parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				Filename: param.NewOpt(p.Filename),
				FileData: param.NewOpt(p.FileData),
			}))
		}
	}

	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	}
}
