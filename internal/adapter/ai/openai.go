// Package ai implements the assistant's provider port on top of the OpenAI API.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/iho/edufinance/internal/domain"
)

const (
	receiptPrompt = "Extract: Total Amount (number), Date (YYYY-MM-DD), Description, Type (INCOME/EXPENSE). Return JSON."

	// Fallbacks for an empty model answer.
	noAnalysisText = "No analysis generated."
	noSearchText   = "No info found."

	analysisMaxTokens = 32768
)

// ErrEmptyResponse is returned when the provider answered without content.
var ErrEmptyResponse = errors.New("empty response from provider")

// Config holds the provider connection and model choices.
type Config struct {
	APIKey  string
	BaseURL string // optional, defaults to the public API

	ReceiptModel  string
	ChatModel     string
	SearchModel   string
	AnalysisModel string
	SpeechModel   string
	SpeechVoice   string
	ImageModel    string
	EditModel     string
}

func (c Config) withDefaults() Config {
	if c.ReceiptModel == "" {
		c.ReceiptModel = openai.GPT4o
	}
	if c.ChatModel == "" {
		c.ChatModel = openai.GPT4oMini
	}
	if c.SearchModel == "" {
		c.SearchModel = "gpt-4o-search-preview"
	}
	if c.AnalysisModel == "" {
		c.AnalysisModel = openai.O4Mini
	}
	if c.SpeechModel == "" {
		c.SpeechModel = string(openai.TTSModel1)
	}
	if c.SpeechVoice == "" {
		c.SpeechVoice = string(openai.VoiceAlloy)
	}
	if c.ImageModel == "" {
		c.ImageModel = openai.CreateImageModelDallE3
	}
	if c.EditModel == "" {
		c.EditModel = openai.CreateImageModelDallE2
	}
	return c
}

// Client implements usecase.AIClient.
type Client struct {
	api *openai.Client
	cfg Config
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

var receiptSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"amount":      {Type: jsonschema.Number},
		"date":        {Type: jsonschema.String, Description: "YYYY-MM-DD"},
		"description": {Type: jsonschema.String},
		"type":        {Type: jsonschema.String, Enum: []string{"INCOME", "EXPENSE"}},
	},
}

// ExtractReceipt asks a vision model to read a receipt.
func (c *Client) ExtractReceipt(ctx context.Context, img []byte, mimeType string) (*domain.ReceiptDraft, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ReceiptModel,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				{Type: openai.ChatMessagePartTypeText, Text: receiptPrompt},
			},
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "receipt",
				Schema: receiptSchema,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("receipt completion: %w", err)
	}

	text, err := firstChoice(resp)
	if err != nil {
		return nil, err
	}

	var draft domain.ReceiptDraft
	dec := json.NewDecoder(strings.NewReader(stripFence(text)))
	dec.UseNumber()
	if err := dec.Decode(&draft); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}

	return &draft, nil
}

// Chat answers with the fast model.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.cfg.ChatModel,
		Messages: userMessage(message),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return firstChoice(resp)
}

// SearchChat answers with a model that can search the web. Search models
// reject sampling parameters, so only the model and messages are sent.
func (c *Client) SearchChat(ctx context.Context, message string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.cfg.SearchModel,
		Messages: userMessage(message),
	})
	if err != nil {
		return "", fmt.Errorf("search completion: %w", err)
	}

	text, err := firstChoice(resp)
	if errors.Is(err, ErrEmptyResponse) {
		return noSearchText, nil
	}
	return text, err
}

// Analyze runs the reasoning model over the ledger context.
func (c *Client) Analyze(ctx context.Context, query, ledgerContext string) (string, error) {
	prompt := fmt.Sprintf("Context: %s. User Query: %s. Analyze deeply.", ledgerContext, query)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               c.cfg.AnalysisModel,
		Messages:            userMessage(prompt),
		ReasoningEffort:     "high",
		MaxCompletionTokens: analysisMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("analysis completion: %w", err)
	}

	text, err := firstChoice(resp)
	if errors.Is(err, ErrEmptyResponse) {
		return noAnalysisText, nil
	}
	return text, err
}

// Speak converts text to mp3 audio.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.cfg.SpeechVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyResponse
	}

	return audio, nil
}

// imageOptions maps a resolution class to the closest model size and quality.
func imageOptions(size domain.ImageSize) (string, string) {
	switch size {
	case domain.ImageSize2K:
		return openai.CreateImageSize1792x1024, openai.CreateImageQualityStandard
	case domain.ImageSize4K:
		return openai.CreateImageSize1792x1024, openai.CreateImageQualityHD
	default:
		return openai.CreateImageSize1024x1024, openai.CreateImageQualityStandard
	}
}

// GenerateImage creates a PNG image from a prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string, size domain.ImageSize) ([]byte, error) {
	modelSize, quality := imageOptions(size)

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           modelSize,
		Quality:        quality,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	return decodeImage(resp)
}

// EditImage edits an uploaded image following a prompt. The edit endpoint
// only takes PNG uploads, so the input is re-encoded first.
func (c *Client) EditImage(ctx context.Context, img []byte, prompt string) ([]byte, error) {
	f, err := pngTempFile(img)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	resp, err := c.api.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          f,
		Prompt:         prompt,
		Model:          c.cfg.EditModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}

	return decodeImage(resp)
}

func pngTempFile(img []byte) (*os.File, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	f, err := os.CreateTemp("", "edufinance-edit-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}

	if err := png.Encode(f, decoded); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("rewind temp image: %w", err)
	}

	return f, nil
}

func decodeImage(resp openai.ImageResponse) ([]byte, error) {
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

func userMessage(text string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: text}}
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
