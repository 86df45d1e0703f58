// Package openai implements the chat provider on top of the OpenAI chat
// completions API, with a persistent response cache in front of it.
package openai

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/comunikime/jarvis/cache_manager"
	"github.com/comunikime/jarvis/embed_data"
	"github.com/comunikime/jarvis/token_management/contracts"
)

const threadIDKey = "thread_id"

// conversationKey is the cache key shape for a chat turn: the message
// content plus the thread it belongs to, so identical questions in
// different conversations stay distinct.
type conversationKey struct {
	Content string `json:"content"`
	Thread  string `json:"thread"`
}

// Client talks to the OpenAI chat completions endpoint and keeps the
// running conversation in memory. Replies are cached by message content
// and thread id; repeating a question within the cache TTL costs nothing.
type Client struct {
	api             openaisdk.Client
	model           string
	threadID        string
	history         []openaisdk.ChatCompletionMessageParamUnion
	cache           *cache_manager.Manager[string]
	meta            *MetaStore
	tokenManagement contracts.ITokenManagement
	logger          *slog.Logger
}

// Config carries everything the client needs at construction time.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	Cache           *cache_manager.Manager[string]
	Meta            *MetaStore
	TokenManagement contracts.ITokenManagement
	Logger          *slog.Logger
}

// NewClient builds a chat client. The thread id is restored from the meta
// store when one exists so the response cache survives restarts; a fresh
// id is minted otherwise.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Client{
		api:             openaisdk.NewClient(opts...),
		model:           cfg.Model,
		cache:           cfg.Cache,
		meta:            cfg.Meta,
		tokenManagement: cfg.TokenManagement,
		logger:          cfg.Logger,
	}

	if c.meta != nil {
		if err := c.meta.Load(); err != nil {
			c.logger.Error("failed to load session metadata", "error", err)
		}
		c.threadID = c.meta.Get(threadIDKey)
	}
	if c.threadID == "" {
		c.threadID = newThreadID()
		c.persistThreadID()
	}

	c.seedHistory()
	return c, nil
}

func newThreadID() string {
	var buf [12]byte
	_, _ = rand.Read(buf[:])
	return "thread_" + base64.RawURLEncoding.EncodeToString(buf[:])
}

func (c *Client) persistThreadID() {
	if c.meta == nil {
		return
	}
	c.meta.Set(threadIDKey, c.threadID)
	if err := c.meta.Save(); err != nil {
		c.logger.Error("failed to persist session metadata", "error", err)
	}
}

func (c *Client) seedHistory() {
	c.history = []openaisdk.ChatCompletionMessageParamUnion{
		openaisdk.SystemMessage(string(embed_data.JarvisInstructions)),
	}
}

// ThreadID identifies the current conversation.
func (c *Client) ThreadID() string {
	return c.threadID
}

// ResetConversation starts a new thread: history is dropped and a new id
// is minted, so cached replies from the old conversation no longer apply.
func (c *Client) ResetConversation() {
	c.threadID = newThreadID()
	c.persistThreadID()
	c.seedHistory()
}

// SendMessage sends one user turn and returns the assistant reply. The
// cache is consulted first; on a hit the API is never called but the turn
// still lands in the conversation history so the context stays coherent.
func (c *Client) SendMessage(ctx context.Context, text string, imagePath string) (string, error) {
	key := conversationKey{Content: text, Thread: c.threadID}

	if c.cache != nil && imagePath == "" {
		if reply, ok, err := c.cache.Get(key); err == nil && ok {
			c.history = append(c.history, openaisdk.UserMessage(text), openaisdk.AssistantMessage(reply))
			return reply, nil
		}
	}

	userMessage, err := c.userMessage(text, imagePath)
	if err != nil {
		return "", err
	}
	c.history = append(c.history, userMessage)

	resp, err := c.api.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages: c.history,
		Model:    openaisdk.ChatModel(c.model),
	})
	if err != nil {
		// Keep history consistent with what the API has actually seen.
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("no choices in response")
	}

	reply := resp.Choices[0].Message.Content
	c.history = append(c.history, openaisdk.AssistantMessage(reply))

	if c.tokenManagement != nil {
		c.tokenManagement.UsedTokens(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
	}

	if c.cache != nil && imagePath == "" {
		if err := c.cache.Set(key, reply); err != nil {
			c.logger.Error("failed to cache reply", "error", err)
		}
	}

	return reply, nil
}

func (c *Client) userMessage(text string, imagePath string) (openaisdk.ChatCompletionMessageParamUnion, error) {
	if imagePath == "" {
		return openaisdk.UserMessage(text), nil
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return openaisdk.ChatCompletionMessageParamUnion{}, fmt.Errorf("read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))

	return openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
		openaisdk.TextContentPart(text),
		openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}), nil
}
