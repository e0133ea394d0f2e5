package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"posdesk/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ReminderDateLayout is how due dates appear in customer messages
const ReminderDateLayout = "02/01/2006"

// MessageInput is everything a generator may use to write a reminder
type MessageInput struct {
	CustomerName string
	Balance      decimal.Decimal
	DueDate      time.Time
	Type         domain.ReminderType
	DaysUntilDue int
	Risk         domain.RiskProfile
}

// Message is a generated reminder text
type Message struct {
	Body        string
	Insight     string
	GeneratedBy string
}

// MessageGenerator writes reminder messages
type MessageGenerator interface {
	Generate(ctx context.Context, in MessageInput) (Message, error)
}

// ============================================================
// TemplateGenerator: deterministic text per category
// ============================================================

// TemplateGenerator renders fixed templates keyed by reminder type
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template generator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate never fails for a known reminder type
func (g *TemplateGenerator) Generate(_ context.Context, in MessageInput) (Message, error) {
	balance := in.Balance.StringFixed(2)
	due := in.DueDate.Format(ReminderDateLayout)

	var body string
	switch in.Type {
	case domain.ReminderBeforeDue:
		body = fmt.Sprintf("Hi %s, this is a friendly reminder that your loan balance of %s is due on %s, in %d days.",
			in.CustomerName, balance, due, domain.BeforeDueOffset)
	case domain.ReminderOnDue:
		body = fmt.Sprintf("Hi %s, your loan balance of %s is due today (%s). Please arrange your payment.",
			in.CustomerName, balance, due)
	case domain.ReminderOverdue:
		days := -in.DaysUntilDue
		body = fmt.Sprintf("Hi %s, your loan balance of %s was due on %s and is now %d %s overdue. Please settle it as soon as possible.",
			in.CustomerName, balance, due, days, plural(days, "day", "days"))
	default:
		return Message{}, fmt.Errorf("%w: reminder type %q", domain.ErrInvalidInput, in.Type)
	}

	switch in.Risk.Level {
	case domain.RiskLow:
		body += " Thank you for always paying on time."
	case domain.RiskHigh:
		body += " If you need help with a payment plan, just reply to this message."
	}

	return Message{
		Body:        body,
		Insight:     TemplateInsight(in.Risk),
		GeneratedBy: domain.GeneratedByTemplate,
	}, nil
}

// TemplateInsight summarises a risk profile for staff
func TemplateInsight(risk domain.RiskProfile) string {
	if risk.TotalPayments == 0 {
		return "No payment history yet; treat as high risk until the first repayment."
	}
	return fmt.Sprintf("%d of %d payments on time (%.0f%%); %s risk.",
		risk.OnTime, risk.TotalPayments, risk.OnTimeRate*100, risk.Level)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ============================================================
// AIGenerator: personalised text from a text-generation service
// ============================================================

// TextGenerator produces text from a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AIGenerator asks a text-generation service for a personalised message
type AIGenerator struct {
	client TextGenerator
}

// NewAIGenerator creates an AI generator. A nil client makes every call
// return ErrGeneratorUnavailable.
func NewAIGenerator(client TextGenerator) *AIGenerator {
	return &AIGenerator{client: client}
}

// Generate writes the message and a staff insight with the text service
func (g *AIGenerator) Generate(ctx context.Context, in MessageInput) (Message, error) {
	if g.client == nil {
		return Message{}, domain.ErrGeneratorUnavailable
	}

	body, err := g.client.GenerateText(ctx, messagePrompt(in))
	if err != nil {
		return Message{}, fmt.Errorf("generate message: %w", err)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, fmt.Errorf("generate message: %w", domain.ErrGeneratorUnavailable)
	}

	insight, err := g.client.GenerateText(ctx, insightPrompt(in.Risk))
	if err != nil || strings.TrimSpace(insight) == "" {
		insight = TemplateInsight(in.Risk)
	}

	return Message{
		Body:        body,
		Insight:     strings.TrimSpace(insight),
		GeneratedBy: domain.GeneratedByAI,
	}, nil
}

func messagePrompt(in MessageInput) string {
	var situation string
	switch in.Type {
	case domain.ReminderBeforeDue:
		situation = fmt.Sprintf("The payment is due in %d days.", domain.BeforeDueOffset)
	case domain.ReminderOnDue:
		situation = "The payment is due today."
	case domain.ReminderOverdue:
		situation = fmt.Sprintf("The payment is %d days overdue.", -in.DaysUntilDue)
	}

	tone := "warm and appreciative"
	switch in.Risk.Level {
	case domain.RiskMedium:
		tone = "friendly but clear"
	case domain.RiskHigh:
		tone = "polite, firm, and offering help with a payment plan"
	}

	return fmt.Sprintf(`Write a short WhatsApp payment reminder (max 300 characters, no emoji, no greeting line breaks) for a retail store customer.
Customer name: %s
Outstanding balance: %s
Due date: %s
%s
Tone: %s.
Mention the balance and the due date exactly as written above. Reply with the message text only.`,
		in.CustomerName,
		in.Balance.StringFixed(2),
		in.DueDate.Format(ReminderDateLayout),
		situation,
		tone,
	)
}

func insightPrompt(risk domain.RiskProfile) string {
	return fmt.Sprintf(`In one sentence for store staff, describe the repayment risk of a customer with %d payments, %d on time (on-time rate %.2f, risk level %s). Reply with the sentence only.`,
		risk.TotalPayments, risk.OnTime, risk.OnTimeRate, risk.Level)
}

// ============================================================
// FallbackGenerator: preferred generator with a safe fallback
// ============================================================

// FallbackGenerator tries primary first and uses fallback on any error
type FallbackGenerator struct {
	primary  MessageGenerator
	fallback MessageGenerator
}

// NewFallbackGenerator composes two generators
func NewFallbackGenerator(primary, fallback MessageGenerator) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback}
}

// Generate returns the primary result when it succeeds
func (g *FallbackGenerator) Generate(ctx context.Context, in MessageInput) (Message, error) {
	if g.primary != nil {
		msg, err := g.primary.Generate(ctx, in)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, domain.ErrGeneratorUnavailable) {
			log.Printf("⚠️ AI message generation failed, using template: %v", err)
		}
	}
	return g.fallback.Generate(ctx, in)
}
