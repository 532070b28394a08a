package testgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openagents/harness/internal/chatprovider"
	"github.com/openagents/harness/internal/pubsub"
)

// Config tunes a Generator run.
type Config struct {
	CategoryOrder        []Category
	MaxRoundsPerCategory int
	Model                string
}

// DefaultConfig returns the harness's built-in defaults.
func DefaultConfig() Config {
	return Config{
		CategoryOrder:        DefaultCategoryOrder,
		MaxRoundsPerCategory: DefaultMaxRoundsPerCategory,
	}
}

// Generator drives the iterative, category-ordered, reflection-driven test
// synthesis loop.
type Generator struct {
	Provider chatprovider.Provider
	Events   *pubsub.Broker[Payload]
}

type generateResponseItem struct {
	ID             string   `json:"id"`
	Input          string   `json:"input"`
	ExpectedOutput *string  `json:"expectedOutput"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}

type reflectResponse struct {
	ComprehensivenessScore float64  `json:"comprehensivenessScore"`
	Gaps                   []string `json:"gaps"`
	Action                 string   `json:"action"`
	ReflectionText         string   `json:"reflectionText"`
}

// Run generates tests for taskDescription/taskID across cfg.CategoryOrder,
// streaming testgen_test/testgen_reflection events, and finally publishing
// testgen_complete (or testgen_error on failure).
func (g *Generator) Run(ctx context.Context, taskID, taskDescription string, env EnvironmentInfo, cfg Config) ([]GeneratedTest, error) {
	start := time.Now()
	order := cfg.CategoryOrder
	if len(order) == 0 {
		order = DefaultCategoryOrder
	}
	maxRounds := cfg.MaxRoundsPerCategory
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRoundsPerCategory
	}

	var all []GeneratedTest
	categoryRounds := make(map[Category]int)
	totalRounds := 0
	totalTokens := 0
	var uncertainties []string

	for _, category := range order {
		var categoryTests []GeneratedTest

		for round := 1; round <= maxRounds; round++ {
			totalRounds++
			categoryRounds[category] = round

			tests, tokens, err := g.generateRound(ctx, taskID, taskDescription, env, category, categoryTests, cfg.Model)
			if err != nil {
				g.publishError(err)
				return nil, err
			}
			totalTokens += tokens
			categoryTests = append(categoryTests, tests...)
			for i := range tests {
				g.publish(EventTest, Payload{Test: &tests[i]})
			}

			reflection, tokens, err := g.reflectRound(ctx, taskID, category, categoryTests, cfg.Model)
			if err != nil {
				g.publishError(err)
				return nil, err
			}
			totalTokens += tokens
			g.publish(EventReflection, Payload{Reflection: &ReflectionInCategory{Category: category, Reflection: reflection}})

			if reflection.Action == ActionContinue {
				break
			}
			if round == maxRounds {
				uncertainties = append(uncertainties, fmt.Sprintf("%s: reached round limit without reflection signalling continue", category))
			}
		}

		all = append(all, categoryTests...)
	}

	score := ComprehensivenessScore(all)
	g.publish(EventComplete, Payload{Complete: &CompleteSummary{
		TotalTests:             len(all),
		TotalRounds:            totalRounds,
		CategoryRounds:         categoryRounds,
		ComprehensivenessScore: score,
		TotalTokensUsed:        totalTokens,
		DurationMs:             time.Since(start).Milliseconds(),
		Uncertainties:          uncertainties,
	}})

	return all, nil
}

func (g *Generator) publish(t pubsub.EventType, p Payload) {
	if g.Events != nil {
		g.Events.Publish(t, p)
	}
}

func (g *Generator) publishError(err error) {
	g.publish(EventError, Payload{Err: err})
}

func (g *Generator) generateRound(ctx context.Context, taskID, taskDescription string, env EnvironmentInfo, category Category, existing []GeneratedTest, model string) ([]GeneratedTest, int, error) {
	prompt := buildGeneratePrompt(taskID, taskDescription, env, category, existing)
	resp, err := g.Provider.Chat(ctx, chatprovider.Request{
		Model:          model,
		Messages:       []chatprovider.Message{{Role: chatprovider.RoleUser, Content: prompt}},
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, 0, err
	}

	content := firstContent(resp)
	var items []generateResponseItem
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &items); err != nil {
		return nil, 0, fmt.Errorf("testgen: parsing generate response for category %s: %w", category, err)
	}

	tests := make([]GeneratedTest, 0, len(items))
	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		tests = append(tests, GeneratedTest{
			ID:             id,
			Category:       category,
			Input:          item.Input,
			ExpectedOutput: item.ExpectedOutput,
			Reasoning:      item.Reasoning,
			Confidence:     item.Confidence,
		})
	}

	tokens := 0
	if resp.Usage != nil {
		tokens = int(resp.Usage.TotalTokens)
	}
	return tests, tokens, nil
}

func (g *Generator) reflectRound(ctx context.Context, taskID string, category Category, soFar []GeneratedTest, model string) (Reflection, int, error) {
	prompt := buildReflectPrompt(taskID, category, soFar)
	resp, err := g.Provider.Chat(ctx, chatprovider.Request{
		Model:          model,
		Messages:       []chatprovider.Message{{Role: chatprovider.RoleUser, Content: prompt}},
		ResponseFormat: "json",
	})
	if err != nil {
		return Reflection{}, 0, err
	}

	content := firstContent(resp)
	var r reflectResponse
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &r); err != nil {
		return Reflection{}, 0, fmt.Errorf("testgen: parsing reflect response for category %s: %w", category, err)
	}

	tokens := 0
	if resp.Usage != nil {
		tokens = int(resp.Usage.TotalTokens)
	}

	return Reflection{
		ComprehensivenessScore: r.ComprehensivenessScore,
		Gaps:                   r.Gaps,
		Action:                 ReflectionAction(r.Action),
		ReflectionText:         r.ReflectionText,
	}, tokens, nil
}

func firstContent(resp *chatprovider.Response) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// extractJSONArray pulls the first top-level JSON array out of content,
// tolerating surrounding prose or a fenced code block.
func extractJSONArray(content string) string {
	return extractBetween(content, '[', ']')
}

func extractJSONObject(content string) string {
	return extractBetween(content, '{', '}')
}

func extractBetween(content string, open, close byte) string {
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

func buildGeneratePrompt(taskID, taskDescription string, env EnvironmentInfo, category Category, existing []GeneratedTest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s: %s\n", taskID, taskDescription)
	fmt.Fprintf(&sb, "Platform: %s\n", env.Platform)
	fmt.Fprintf(&sb, "Generate %s tests as a JSON array of {id?, input, expectedOutput, reasoning, confidence}.\n", category)
	if len(existing) > 0 {
		fmt.Fprintf(&sb, "%d tests already generated this category; avoid duplicates.\n", len(existing))
	}
	return sb.String()
}

func buildReflectPrompt(taskID string, category Category, soFar []GeneratedTest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s, category %s: %d tests generated so far.\n", taskID, category, len(soFar))
	sb.WriteString("Reply with JSON {comprehensivenessScore (0-10), gaps[], action (continue|more_tests|different_approach), reflectionText}.")
	return sb.String()
}
