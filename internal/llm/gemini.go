package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"gateready.app/booking-assistant/internal/intent"
)

const (
	requestTimeout = 5 * time.Second

	classifySystemInstruction = "Classify user intent for a booking assistant. " +
		"Return JSON with keys: intent (one of latest, all, flight, flight_info, unknown) and flight_number. " +
		"Only include a flight_number if explicitly mentioned (e.g., AI-123)."

	bookingSystemInstruction = "You are a secure booking assistant. Use ONLY the booking data provided. " +
		"Respond in one short sentence. Do not invent details."

	flightInfoSystemInstruction = "You are a secure booking assistant. Use ONLY the flight info provided. " +
		"Answer the user's question in one or two short sentences. Do not invent details."
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (c *GeminiClient) ChatCompletion(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("history is empty for chat completion")
	}
	last := history[len(history)-1]
	if last.Role != "user" {
		return "", fmt.Errorf("last message in history is not from 'user'")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	session := model.StartChat()
	for _, msg := range history[:len(history)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

func (c *GeminiClient) ClassifyIntent(ctx context.Context, text string) (intent.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(classifySystemInstruction)},
	}
	// Force JSON output for structured parsing.
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return intent.Result{}, fmt.Errorf("gemini intent classification failed: %w", err)
	}

	var parsed struct {
		Intent       string `json:"intent"`
		FlightNumber string `json:"flight_number"`
	}
	raw := cleanJSONString(responseText(resp))
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Malformed output is a classification miss, not an outage.
		return intent.Result{Intent: intent.IntentUnknown}, nil
	}
	return intent.Result{Intent: intent.Intent(parsed.Intent), FlightNumber: parsed.FlightNumber}, nil
}

func (c *GeminiClient) BookingSummary(ctx context.Context, booking BookingFields) (string, error) {
	prompt := fmt.Sprintf(
		"Booking data:\nFlight: %s\nFrom: %s\nTo: %s\nDate: %s\nStatus: %s\nReply to the user.",
		booking.FlightNumber, booking.Origin, booking.Destination, booking.Date, booking.Status,
	)
	return c.generate(ctx, bookingSystemInstruction, prompt)
}

func (c *GeminiClient) FlightInfoAnswer(ctx context.Context, detailsText, question string) (string, error) {
	prompt := fmt.Sprintf(
		"Flight info document:\n%s\n\nUser question: %s\nAnswer based only on the document.",
		detailsText, question,
	)
	return c.generate(ctx, flightInfoSystemInstruction, prompt)
}

func (c *GeminiClient) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

// cleanJSONString removes markdown code fences if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
