package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillfin/bursar/internal/config"
	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/profile"
	"github.com/quillfin/bursar/internal/risk"
)

// Mailer sends the interview summary once the risk profile lands. It
// satisfies the advisor's Notifier interface.
type Mailer struct {
	cfg    config.EmailConfig
	logger *slog.Logger
}

// NewMailer creates a Mailer from the email config.
func NewMailer(cfg config.EmailConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger.With("component", "email"),
	}
}

// SendSummary composes the markdown summary of the interview and
// delivers it over SMTP.
func (m *Mailer) SendSummary(ctx context.Context, p *profile.Profile, assessment *risk.Assessment) error {
	body := SummaryBody(p, assessment)

	msg, err := ComposeMessage(ComposeOptions{
		From:    m.cfg.From,
		To:      recipients(m.cfg.To),
		Subject: summarySubject(p),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("compose summary: %w", err)
	}

	if err := SendMail(ctx, m.cfg, recipients(m.cfg.To), msg); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	m.logger.Info("interview summary sent", "to", m.cfg.To)
	return nil
}

// SummaryBody renders the full email body in markdown: the collected
// profile plus the risk assessment.
func SummaryBody(p *profile.Profile, assessment *risk.Assessment) string {
	var b strings.Builder
	b.WriteString("# Financial interview summary\n\n")
	b.WriteString(conversation.Summary(p))

	if assessment != nil {
		fmt.Fprintf(&b, "\n\n## Risk profile\n\n**Appetite:** %s\n\n%s",
			assessment.RiskAppetite, assessment.AgentReason)
		if len(assessment.KeyConcerns) > 0 {
			b.WriteString("\n\n**Key concerns:**\n")
			for _, c := range assessment.KeyConcerns {
				fmt.Fprintf(&b, "\n- %s", c)
			}
		}
		if len(assessment.Strengths) > 0 {
			b.WriteString("\n\n**Strengths:**\n")
			for _, s := range assessment.Strengths {
				fmt.Fprintf(&b, "\n- %s", s)
			}
		}
	}

	return b.String()
}

func summarySubject(p *profile.Profile) string {
	if p.UserGoal != nil && *p.UserGoal != "" {
		return "Financial interview summary: " + *p.UserGoal
	}
	return "Financial interview summary"
}

// recipients splits a comma-separated address list from config.
func recipients(to string) []string {
	var out []string
	for _, a := range strings.Split(to, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
