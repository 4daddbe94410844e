package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// defaultQuery stands in when the farmer sends only a photo.
	defaultQuery = "Help me with my crop."

	// emptyReplyFallback is returned when the model call succeeds but
	// yields no usable text. It is a normal reply, not an error.
	emptyReplyFallback = "I'm sorry, I couldn't generate a response. Please try again."
)

var (
	// ErrRateLimited marks failures where the model signaled throttling or
	// quota exhaustion. Callers render distinct wording for it.
	ErrRateLimited = errors.New("advisory model rate limited")

	// ErrRequestFailed marks every other transport or model failure.
	ErrRequestFailed = errors.New("advisory request failed")
)

// Service issues single-shot advisory calls against the configured chat
// model. Each call is independent: the fixed system instruction plus the
// farmer's text and optional photo, no conversation history, no retry.
type Service struct {
	chatModel model.ChatModel
}

// NewService wraps an existing chat model instance.
func NewService(chatModel model.ChatModel) *Service {
	return &Service{chatModel: chatModel}
}

// GetAdvisory sends the farmer's query to the advisory model and returns the
// reply text. image, when present, must be a data URI; a malformed data URI
// is skipped rather than failing the whole request.
func (s *Service) GetAdvisory(ctx context.Context, text, image string) (string, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		query = defaultQuery
	}

	userMsg := schema.UserMessage(query)
	if image != "" {
		if mimeType, _, ok := splitDataURI(image); ok {
			userMsg = &schema.Message{
				Role: schema.User,
				MultiContent: []schema.ChatMessagePart{
					{Type: schema.ChatMessagePartTypeText, Text: query},
					{
						Type: schema.ChatMessagePartTypeImageURL,
						ImageURL: &schema.ChatMessageImageURL{
							URL:      image,
							MIMEType: mimeType,
						},
					},
				},
			}
		} else {
			log.Printf("[ai] skipping attachment with malformed data URI")
		}
	}

	messages := []*schema.Message{
		schema.SystemMessage(advisorySystemPrompt),
		userMsg,
	}

	reply, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", classify(err)
	}

	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return emptyReplyFallback, nil
	}
	return reply.Content, nil
}

// Unconfigured is wired in place of Service when no model credentials were
// provided; every call fails like a normal request failure so the absence of
// a credential surfaces conversationally on first use.
type Unconfigured struct{}

// GetAdvisory always fails with a generic request failure.
func (Unconfigured) GetAdvisory(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: advisory model is not configured", ErrRequestFailed)
}

// classify maps a transport error onto the two failure kinds the
// conversation layer distinguishes. The throttling check runs first because
// rate limits arrive as ordinary transport errors.
func classify(err error) error {
	if isRateLimited(err) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", ErrRequestFailed, err)
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "quota")
}

// splitDataURI pulls the mime type and base64 payload out of a
// "data:<mime>;base64,<payload>" string.
func splitDataURI(uri string) (mimeType, payload string, ok bool) {
	rest, found := strings.CutPrefix(uri, "data:")
	if !found {
		return "", "", false
	}

	mimeType, payload, found = strings.Cut(rest, ";base64,")
	if !found || mimeType == "" || payload == "" {
		return "", "", false
	}
	return mimeType, payload, true
}
