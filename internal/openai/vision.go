package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyImage is returned when the image payload is empty
var ErrEmptyImage = errors.New("image cannot be empty")

const ocrPrompt = "Transcribe all text visible in this image. " +
	"Return only the transcribed text, preserving the original layout where possible. " +
	"If the image contains no text, return an empty response."

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// ImageMIMEType returns the MIME type for a supported image extension,
// falling back to image/png.
func ImageMIMEType(ext string) string {
	if mime, ok := imageMIMETypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "image/png"
}

// ExtractImageText transcribes the text content of an image using the
// vision-capable chat model. The image is sent inline as a base64 data URL.
func (c *Client) ExtractImageText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
