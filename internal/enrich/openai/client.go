package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/daysupplynational/daysupply/internal/enrich"
)

// retryDelay is the fixed wait between an upstream failure and the single
// retry attempt.
const retryDelay = time.Second

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.openai.com/v1")
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// ParseDirections implements the enrich.Client interface
func (client *Client) ParseDirections(
	ctx context.Context,
	params enrich.ParseDirectionsRequest,
) (enrich.ParseDirectionsResponse, error) {
	var result enrich.ParseDirectionsResponse
	if err := retry.Do(
		func() error {
			response, err := client.parseDirections(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
	); err != nil {
		return enrich.ParseDirectionsResponse{}, err
	}
	return result, nil
}

func (client *Client) getParseRequestBody(args enrich.ParseDirectionsRequest) (ChatCompletionRequest, error) {
	systemPrompt := `You are a clinical pharmacy assistant that interprets prescription directions (sig) text.

GOAL
Return ONLY a JSON object with these fields:
- "daily_frequency": number of administrations per day. Use fractions for slower schedules (once weekly = 0.14286, every other week = 0.07143, monthly = 0.03333).
- "dose_per_administration": numeric amount per administration in the product's dosing unit (sprays, puffs, units, drops, tablets, grams).
- "route": administration route (e.g. "nasal", "inhalation", "subcutaneous", "ophthalmic", "topical", "oral").
- "is_prn": true when the directions indicate as-needed use.
- "standardized_directions": the directions rewritten in plain unambiguous wording.
- "confidence": your confidence from 0.0 to 1.0 in this interpretation.
- "suggested_day_supply": integer day supply ONLY when the directions state or directly imply one (e.g. "use for 10 days", a taper with an end date). Omit otherwise.
- "calculation_notes": brief reasoning, one sentence.

STRICT OUTPUT: No text outside the JSON object. Numbers are plain JSON numbers.

RULES
- "each nostril" / "both nostrils" doubles the per-administration spray count.
- Latin abbreviations: qd=1/day, bid=2/day, tid=3/day, qid=4/day, qXh = 24/X per day, prn = as needed.
- For PRN directions, estimate realistic usage, not the theoretical maximum.
- For insulin sliding scales, use the average expected daily units as dose with frequency 1.
- Never invent a suggested_day_supply; quantity and package math is handled elsewhere.`

	type promptExample struct {
		description     string
		userRequest     enrich.ParseDirectionsRequest
		assistantAnswer enrich.ParsedDirections
	}

	examples := []promptExample{
		{
			description: "Nasal spray with per-nostril doubling",
			userRequest: enrich.ParseDirectionsRequest{
				DrugName:   "Fluticasone Propionate 50mcg",
				Directions: "2 sprays each nostril twice daily",
				Quantity:   1,
				Category:   "nasal_spray",
			},
			assistantAnswer: enrich.ParsedDirections{
				DailyFrequency:         2,
				DosePerAdministration:  4,
				Route:                  "nasal",
				IsPRN:                  false,
				StandardizedDirections: "Use 2 sprays in each nostril twice daily",
				Confidence:             0.97,
				CalculationNotes:       "2 sprays per nostril doubles to 4 sprays per administration",
			},
		},
		{
			description: "PRN rescue inhaler estimated below theoretical maximum",
			userRequest: enrich.ParseDirectionsRequest{
				DrugName:   "Albuterol HFA",
				Directions: "1-2 puffs every 4-6 hours as needed for wheezing",
				Quantity:   1,
				Category:   "oral_inhaler",
			},
			assistantAnswer: enrich.ParsedDirections{
				DailyFrequency:         4.5,
				DosePerAdministration:  2,
				Route:                  "inhalation",
				IsPRN:                  true,
				StandardizedDirections: "Inhale 2 puffs every 4 to 6 hours as needed",
				Confidence:             0.85,
				CalculationNotes:       "PRN q4-6h estimated at 4.5 uses per day with the higher dose",
			},
		},
		{
			description: "Weekly injectable with fractional daily frequency",
			userRequest: enrich.ParseDirectionsRequest{
				DrugName:   "Ozempic 1mg/dose",
				Directions: "Inject 1 mg subcutaneously once weekly",
				Quantity:   3,
				Category:   "diabetic_injectable",
			},
			assistantAnswer: enrich.ParsedDirections{
				DailyFrequency:         0.14286,
				DosePerAdministration:  1,
				Route:                  "subcutaneous",
				IsPRN:                  false,
				StandardizedDirections: "Inject 1 mg under the skin once weekly",
				Confidence:             0.98,
				CalculationNotes:       "Once weekly is 1/7 administrations per day",
			},
		},
		{
			description: "Directions that state their own duration",
			userRequest: enrich.ParseDirectionsRequest{
				DrugName:   "Vigamox 0.5%",
				Directions: "1 drop in affected eye three times daily for 7 days",
				Quantity:   3,
				Category:   "eyedrop",
			},
			assistantAnswer: enrich.ParsedDirections{
				DailyFrequency:         3,
				DosePerAdministration:  1,
				Route:                  "ophthalmic",
				IsPRN:                  false,
				StandardizedDirections: "Instill 1 drop in the affected eye three times daily for 7 days",
				Confidence:             0.96,
				SuggestedDaySupply:     intPtr(7),
				CalculationNotes:       "Directions state a 7 day course",
			},
		},
	}

	messages := []Message{
		{
			Role:    RoleSystem,
			Content: systemPrompt,
		},
	}

	for _, example := range examples {
		userJSON, err := json.Marshal(example.userRequest)
		if err != nil {
			return ChatCompletionRequest{}, fmt.Errorf("failed to marshal example user request: %w", err)
		}
		assistantJSON, err := json.Marshal(example.assistantAnswer)
		if err != nil {
			return ChatCompletionRequest{}, fmt.Errorf("failed to marshal example assistant answer: %w", err)
		}

		messages = append(messages,
			Message{
				Role:    RoleUser,
				Content: string(userJSON),
			},
			Message{
				Role:    RoleAssistant,
				Content: string(assistantJSON),
			},
		)
	}

	userJSON, err := json.Marshal(args)
	if err != nil {
		return ChatCompletionRequest{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	messages = append(messages, Message{
		Role:    RoleUser,
		Content: string(userJSON),
	})

	body := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.1,
		Messages:    messages,
	}

	return body, nil
}

func intPtr(v int) *int {
	return &v
}

func (client *Client) parseDirections(
	ctx context.Context,
	args enrich.ParseDirectionsRequest,
) (enrich.ParseDirectionsResponse, error) {
	if strings.TrimSpace(args.Directions) == "" {
		return enrich.ParseDirectionsResponse{}, retry.Unrecoverable(fmt.Errorf("empty directions"))
	}

	requestBody, err := client.getParseRequestBody(args)
	if err != nil {
		return enrich.ParseDirectionsResponse{}, fmt.Errorf("getParseRequestBody > %w", err)
	}

	content, err := client.complete(ctx, requestBody)
	if err != nil {
		return enrich.ParseDirectionsResponse{}, err
	}

	var decoded enrich.ParsedDirections
	if err := json.Unmarshal([]byte(stripMarkdownFences(content)), &decoded); err != nil {
		slog.Default().Error("Failed to parse model response as JSON",
			"drugName", args.DrugName,
			"error", err)
		return enrich.ParseDirectionsResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	if decoded.Confidence < enrich.MinUsableConfidence {
		return enrich.ParseDirectionsResponse{}, fmt.Errorf("model confidence %.2f below usable floor", decoded.Confidence)
	}
	return enrich.ParseDirectionsResponse{Parsed: decoded}, nil
}

// SuggestAlternativeNames implements the enrich.Client interface
func (client *Client) SuggestAlternativeNames(
	ctx context.Context,
	params enrich.SuggestNamesRequest,
) (enrich.SuggestNamesResponse, error) {
	var result enrich.SuggestNamesResponse
	if err := retry.Do(
		func() error {
			response, err := client.suggestAlternativeNames(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
	); err != nil {
		return enrich.SuggestNamesResponse{}, err
	}
	return result, nil
}

func (client *Client) suggestAlternativeNames(
	ctx context.Context,
	params enrich.SuggestNamesRequest,
) (enrich.SuggestNamesResponse, error) {
	systemPrompt := `You are a pharmacy drug name normalizer.

The user gives a drug name as it appeared on a prescription label. It may
include strength, package size, dosage form, or marketing qualifiers, and may
be a generic or a brand.

Return ONLY a JSON object:
{"names": ["<candidate 1>", "<candidate 2>", ...]}

The candidates are plain product names most likely to appear in a drug
database: the brand name, the generic ingredient name, and common equivalents.
Strip strengths, package sizes and qualifiers. Order by likelihood. At most 5
candidates. No text outside the JSON.`

	userMessage := fmt.Sprintf("Prescription label name: %s", params.DrugName)

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.1,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
	}

	content, err := client.complete(ctx, requestBody)
	if err != nil {
		return enrich.SuggestNamesResponse{}, err
	}

	var decoded enrich.SuggestNamesResponse
	if err := json.Unmarshal([]byte(stripMarkdownFences(content)), &decoded); err != nil {
		return enrich.SuggestNamesResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return decoded, nil
}

func (client *Client) complete(ctx context.Context, requestBody ChatCompletionRequest) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("model response content",
		"model", responseBody.Model,
		"content", content,
	)
	return content, nil
}

// stripMarkdownFences removes a ```json ... ``` wrapper some models emit
// despite the strict output instruction.
func stripMarkdownFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
