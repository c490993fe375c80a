// Package ai is the admin assistant: a Gemini chat session that can call into
// the catalog, orders and sales reports.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"thekua-api/internal/apperr"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel  = "gemini-2.0-flash-001"
	maxToolRounds = 5
)

type Agent struct {
	apiKey string
	model  string
	tools  *Tools
	log    *slog.Logger
	now    func() time.Time
}

func NewAgent(apiKey string, tools *Tools, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{apiKey: apiKey, model: DefaultModel, tools: tools, log: log, now: time.Now}
}

// Enabled reports whether an API key is configured.
func (a *Agent) Enabled() bool { return a.apiKey != "" }

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf(`Today is %s. You are the back-office assistant of TheKua, an online sweets store. Prices are in INR.

RULES:
1. UPDATE: If asked to update a product by NAME, do NOT ask for the ID. Call 'check_inventory' to find the ID, then call 'update_product_price'.
2. READ: For price, stock or details of a product, call 'check_inventory' and answer from the result.
3. SALES: For sales or revenue, use 'get_sales_report'.
4. ORDERS: For an order's status, use 'find_order' with the order number.
Keep answers short.`, a.now().Format("2006-01-02"))
}

// Ask sends one admin message and returns the model's final text, running
// any tool calls it makes along the way.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("assistant: %w", apperr.ErrUnavailable)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.Invalid("message", "is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(a.systemPrompt()))
	model.Tools = []*genai.Tool{{FunctionDeclarations: a.tools.declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return responseText(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Info("assistant tool call", "tool", call.Name)
			out, err := a.tools.Execute(ctx, call.Name, call.Args)
			if err != nil {
				return "", err
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: out})
		}

		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}
	return responseText(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "I completed the action."
	}
	return b.String()
}
