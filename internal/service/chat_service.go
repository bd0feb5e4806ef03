package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ─────────────────────────────────────────────────────────────
// Chat Service: design tutor over a chat completions endpoint
// ─────────────────────────────────────────────────────────────

// ErrEmptyMessage rejects a chat turn with no text.
var ErrEmptyMessage = errors.New("message is empty")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const tutorPrompt = "You are a design teacher for students learning graphic design. " +
	"Teach design concepts (color theory, typography, composition, spacing). " +
	"Give creative assignments. Explain poster sizes (A4: 210x297mm, Instagram: 1080x1080px, etc). " +
	"Be encouraging and educational. Use emojis occasionally."

const (
	chatGreeting = "Welcome! I'm your design tutor. 📚 Today we'll learn about design. How can I help?"
	chatNoKey    = "Please add your chat API key in settings so I can answer you."
	chatNoAnswer = "Sorry, something went wrong."
)

// ChatMessage is one turn of a tutor conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assignment is a canned exercise the tutor can hand out without a call.
type Assignment struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Brief string `json:"brief"`
}

var assignments = []Assignment{
	{
		Key:   "poster",
		Title: "Poster",
		Brief: "📝 **Today's assignment:**\n\nMake a poster about 'Saving Water'\n\n" +
			"**Requirements:**\n• Size: 800x1000 pixels\n• Colors: blue and white\n" +
			"• Text: a large title + 3 points\n• Images: one or two\n\n" +
			"**Time:** 30 minutes\n\nStart now! 🎨",
	},
	{
		Key:   "logo",
		Title: "Logo",
		Brief: "📝 **Today's assignment:**\n\nMake a logo for a new company\n\n" +
			"**Requirements:**\n• Size: 500x500 pixels\n• Colors: 2-3 only\n" +
			"• Simple and memorable\n• Company name: 'Dadaal Tech'\n\n" +
			"**Time:** 20 minutes\n\nStart now! 💡",
	},
	{
		Key:   "social",
		Title: "Social post",
		Brief: "📝 **Today's assignment:**\n\nMake a social media post\n\n" +
			"**Requirements:**\n• Size: 1080x1080 pixels (Instagram)\n• Topic: healthy food\n" +
			"• Text: short and catchy\n• Colors: bright\n\n" +
			"**Time:** 25 minutes\n\nStart now! 📱",
	},
}

// KeySource returns the current API key, or nil when none is stored.
type KeySource interface {
	Get(key string) ([]byte, error)
}

// ChatOptions configure the completions endpoint.
type ChatOptions struct {
	Endpoint string
	Model    string
	Language string
	// KeyName is the secret holding the bearer token.
	KeyName string
	Timeout time.Duration
	Title   string
}

// ChatService answers design questions through an OpenAI-compatible
// chat completions API. The key is read on every turn, so a key stored
// in settings applies without a restart.
type ChatService struct {
	opts   ChatOptions
	keys   KeySource
	client *http.Client
}

// NewChatService creates a ChatService. client may be nil.
func NewChatService(opts ChatOptions, keys KeySource, client *http.Client) *ChatService {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "Studio"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &ChatService{opts: opts, keys: keys, client: client}
}

// Greeting is the first assistant turn of a new conversation.
func (s *ChatService) Greeting() ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: chatGreeting}
}

// Assignments lists the canned exercises.
func (s *ChatService) Assignments() []Assignment {
	return assignments
}

// Assignment returns the canned exercise for key as an assistant turn.
func (s *ChatService) Assignment(key string) (ChatMessage, bool) {
	a, ok := lo.Find(assignments, func(a Assignment) bool { return a.Key == key })
	if !ok {
		return ChatMessage{}, false
	}
	return ChatMessage{Role: RoleAssistant, Content: a.Brief}, true
}

// Chat sends history plus input and returns the assistant's reply. Without
// a stored key it answers with a hint instead of calling out. System turns
// in history are dropped; the tutor prompt always leads.
func (s *ChatService) Chat(ctx context.Context, history []ChatMessage, input string) (ChatMessage, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	key, err := s.apiKey()
	if err != nil {
		return ChatMessage{}, fmt.Errorf("chat: %w", err)
	}
	if key == "" {
		return ChatMessage{Role: RoleAssistant, Content: chatNoKey}, nil
	}

	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: s.systemPrompt()})
	msgs = append(msgs, lo.Filter(history, func(m ChatMessage, _ int) bool {
		return (m.Role == RoleUser || m.Role == RoleAssistant) && m.Content != ""
	})...)
	msgs = append(msgs, ChatMessage{Role: RoleUser, Content: input})

	content, err := s.complete(ctx, key, msgs)
	if err != nil {
		log.Printf("[chat] completion failed: %v", err)
		return ChatMessage{}, fmt.Errorf("chat: %w", err)
	}
	if content == "" {
		content = chatNoAnswer
	}
	return ChatMessage{Role: RoleAssistant, Content: content}, nil
}

func (s *ChatService) apiKey() (string, error) {
	if s.keys == nil || s.opts.KeyName == "" {
		return "", nil
	}
	b, err := s.keys.Get(s.opts.KeyName)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *ChatService) systemPrompt() string {
	if s.opts.Language == "" {
		return tutorPrompt
	}
	return tutorPrompt + " You MUST answer in " + s.opts.Language + " only."
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

func (s *ChatService) complete(ctx context.Context, key string, msgs []ChatMessage) (string, error) {
	body, err := json.Marshal(completionRequest{Model: s.opts.Model, Messages: msgs})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("X-Title", s.opts.Title)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
