package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codetrack/ai-gateway/services"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/router"
	"github.com/codetrack/ai-gateway/services/usage"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// Router routes AI requests through the provider chain
type Router interface {
	Route(ctx context.Context, req *providers.Request) *router.Response
}

// Explanation is the tutor's answer to a student question
type Explanation struct {
	Text         string `json:"text"`
	Provider     string `json:"provider"`
	FromFallback bool   `json:"from_fallback"`
}

// PlanWeek is one week of a generated study plan
type PlanWeek struct {
	Focus               string   `json:"focus"`
	DailyTasks          []string `json:"daily_tasks"`
	RecommendedProblems []string `json:"recommended_problems"`
	LearningResources   []string `json:"learning_resources"`
}

// Plan is a parsed 4-week study plan
type Plan struct {
	Week1 PlanWeek `json:"week_1"`
	Week2 PlanWeek `json:"week_2"`
	Week3 PlanWeek `json:"week_3"`
	Week4 PlanWeek `json:"week_4"`
	Tips  []string `json:"tips"`
}

// PlanResult pairs a study plan with routing metadata
type PlanResult struct {
	Plan         *Plan  `json:"plan"`
	Provider     string `json:"provider"`
	FromFallback bool   `json:"from_fallback"`
}

// Service provides AI tutoring: concept explanations and study plans
type Service struct {
	router   Router
	recorder usage.Recorder
	logger   *zap.Logger
}

// NewService creates a new tutor service
func NewService(r Router, rec usage.Recorder, logger *zap.Logger) *Service {
	return &Service{
		router:   r,
		recorder: rec,
		logger:   logger,
	}
}

// Explain answers a student question in plain text
func (s *Service) Explain(ctx context.Context, question, studentContext string) (*Explanation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "question")
	}

	prompt := fmt.Sprintf(`You are an AI coding tutor helping a student with their programming journey.
Here's their profile:
%s

Student Question: %s

Provide a helpful, encouraging, and educational response. Include specific examples or code snippets when appropriate.`,
		studentContext, question)

	req := &providers.Request{
		Kind:   providers.TaskTutorExplanation,
		Prompt: prompt,
		Format: providers.FormatText,
	}

	resp := s.router.Route(ctx, req)
	// Every router invocation is recorded, rejections included
	s.recorder.RecordResponse(req, resp)

	if !resp.Success {
		return nil, services.NewDomainError(services.ErrorTypeValidation, resp.FailureReason, nil)
	}

	s.logger.Info("tutor explanation produced",
		zap.String("provider", resp.Provider),
		zap.Bool("fallback", resp.FromFallback()))

	return &Explanation{
		Text:         resp.Text,
		Provider:     resp.Provider,
		FromFallback: resp.FromFallback(),
	}, nil
}

// StudyPlan generates a personalized 4-week study plan
func (s *Service) StudyPlan(ctx context.Context, studentContext, requirements string) (*PlanResult, error) {
	if strings.TrimSpace(studentContext) == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "context")
	}

	prompt := fmt.Sprintf(`Based on the following user profile and coding progress, create a personalized 4-week study plan.
Focus on areas that need improvement and align with their goals.

User Context:
%s

Additional Requirements: %s

Please provide a detailed study plan in JSON format with the following structure:
{
  "week_1": {
    "focus": "main topic to focus on",
    "daily_tasks": ["task1", "task2", "task3"],
    "recommended_problems": ["problem1", "problem2"],
    "learning_resources": ["resource1", "resource2"]
  },
  "week_2": { ... },
  "week_3": { ... },
  "week_4": { ... },
  "tips": ["general study tip1", "tip2"]
}`, studentContext, requirements)

	req := &providers.Request{
		Kind:   providers.TaskStudyPlan,
		Prompt: prompt,
		Format: providers.FormatJSON,
	}

	resp := s.router.Route(ctx, req)
	// Every router invocation is recorded, rejections included
	s.recorder.RecordResponse(req, resp)

	if !resp.Success {
		return nil, services.NewDomainError(services.ErrorTypeValidation, resp.FailureReason, nil)
	}

	plan, err := parsePlan(resp.Text)
	if err != nil {
		s.logger.Warn("unparseable study plan payload",
			zap.String("provider", resp.Provider),
			zap.Error(err))
		return nil, services.WrapExternal("provider returned unparseable study plan", err)
	}

	s.logger.Info("study plan generated",
		zap.String("provider", resp.Provider),
		zap.Bool("fallback", resp.FromFallback()))

	return &PlanResult{
		Plan:         plan,
		Provider:     resp.Provider,
		FromFallback: resp.FromFallback(),
	}, nil
}

// parsePlan decodes the model's JSON, repairing it first when a strict decode fails
func parsePlan(text string) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &plan); err != nil {
			return nil, fmt.Errorf("decode failed after repair: %w", err)
		}
	}

	if plan.Week1.Focus == "" {
		return nil, fmt.Errorf("payload contains no study plan")
	}

	return &plan, nil
}
