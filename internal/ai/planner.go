// Package ai generates maintenance plan proposals through the Claude
// Messages API. The planner returns plain data; turning plan items into
// tasks is the state manager's job.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"edificaflow/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// ErrEmptyPlan is returned when the model responds without a usable plan.
var ErrEmptyPlan = errors.New("ai: response contained no plan items")

// PlanItem is one proposed maintenance task. Frequency and priority are
// validated against the domain enums before the item is accepted.
type PlanItem struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Frequency     model.Frequency `json:"frequency"`
	Priority      model.Priority  `json:"priority"`
	Justification string          `json:"justification"`
}

// Planner calls the Claude Messages API to draft maintenance plans.
type Planner struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewPlanner creates a planner with the given configuration. Empty model
// name and non-positive max tokens fall back to defaults.
func NewPlanner(apiKey, modelName string, maxTokens int) *Planner {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Planner{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

// GeneratePlan asks the model for a maintenance plan tailored to the given
// building description and returns the validated plan items.
func (p *Planner) GeneratePlan(ctx context.Context, description string) ([]PlanItem, error) {
	resp, err := p.callAPI(ctx, description)
	if err != nil {
		return nil, err
	}

	var textParts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	if len(textParts) == 0 {
		return nil, ErrEmptyPlan
	}

	items, err := decodePlan(strings.Join(textParts, ""))
	if err != nil {
		return nil, err
	}
	return items, nil
}

// callAPI makes a single request to the Claude Messages API.
func (p *Planner) callAPI(ctx context.Context, description string) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt(),
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContentBlock{
					{Type: "text", Text: userPrompt(description)},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// systemPrompt pins the response contract: a bare JSON array, domain enums
// only.
func systemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a building maintenance planning expert. ")
	sb.WriteString("Given a description of a building and its facilities, ")
	sb.WriteString("you produce a preventive maintenance plan.\n\n")

	sb.WriteString("Respond with ONLY a JSON array, no prose before or after. ")
	sb.WriteString("Each element has exactly these fields:\n")
	sb.WriteString(`- "title": short task name` + "\n")
	sb.WriteString(`- "description": what the work involves` + "\n")
	sb.WriteString(`- "category": e.g. Electrical, Plumbing, Structural, Fire Safety, Security, General` + "\n")
	sb.WriteString(`- "frequency": one of DAILY, WEEKLY, MONTHLY, QUARTERLY, ANNUAL, QUINQUENNIAL` + "\n")
	sb.WriteString(`- "priority": one of LOW, MEDIUM, HIGH, CRITICAL` + "\n")
	sb.WriteString(`- "justification": why this task and cadence matter for this building` + "\n")

	return sb.String()
}

func userPrompt(description string) string {
	return fmt.Sprintf(
		"Create a preventive maintenance plan for the following building:\n\n%s",
		description,
	)
}

// decodePlan extracts the JSON array from the model's text. Models sometimes
// wrap output in code fences or lead with a sentence despite instructions,
// so decoding starts at the first '[' and trims fences first.
func decodePlan(text string) ([]PlanItem, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "[")
	if start < 0 {
		return nil, ErrEmptyPlan
	}
	cleaned = cleaned[start:]

	var items []PlanItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyPlan
	}

	for i, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			return nil, fmt.Errorf("plan item %d has no title", i)
		}
		if !item.Frequency.IsValid() {
			return nil, fmt.Errorf("plan item %q: %w: %s",
				item.Title, model.ErrInvalidFrequency, item.Frequency)
		}
		if !item.Priority.IsValid() {
			return nil, fmt.Errorf("plan item %q: %w: %s",
				item.Title, model.ErrInvalidPriority, item.Priority)
		}
	}

	return items, nil
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
