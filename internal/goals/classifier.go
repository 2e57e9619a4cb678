package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillfin/bursar/internal/oracle"
	"github.com/quillfin/bursar/internal/profile"
)

// NotAGoal is the rejection category: the stated goal is too vague to
// plan for.
const NotAGoal = "not_a_goal"

// category order matters: it is the order the oracle sees them in.
var categories = []struct {
	name, description string
}{
	{"small_purchase", "Items under $10k like phone, laptop, appliance"},
	{"medium_purchase", "Items $10k-$100k like car, bike, renovation"},
	{"large_purchase", "Items over $100k like property"},
	{"luxury", "High-end luxury items like Mercedes, yacht, expensive watches"},
	{"life_event", "Major life events like marriage, child education, retirement"},
	{"investment", "Investment goals like ETFs, stocks, property investment, extra super contributions"},
	{"emergency", "Emergency planning like medical emergency fund, job loss buffer"},
	{NotAGoal, "Vague aspirations with no concrete financial objective, like wanting to be happy or successful"},
}

// ValidClassification reports whether name is a plannable category.
func ValidClassification(name string) bool {
	if name == NotAGoal {
		return false
	}
	for _, c := range categories {
		if c.name == name {
			return true
		}
	}
	return false
}

// Outcome is the result of classifying a stated goal.
type Outcome struct {
	Classification string `json:"classification"`
	Reasoning      string `json:"reasoning,omitempty"`

	// Accepted is false for not_a_goal; Message then carries the
	// corrective reply to send back.
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// Classifier assigns stated goals to the taxonomy and persists
// accepted classifications.
type Classifier struct {
	oracle oracle.Client
	store  *profile.Store
	logger *slog.Logger
}

func NewClassifier(oc oracle.Client, store *profile.Store, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		oracle: oc,
		store:  store,
		logger: logger.With("component", "goals"),
	}
}

const classifySystemPrompt = "You are a financial goal classifier. Always respond with valid JSON."

// Classify categorizes userGoal. An accepted classification writes
// user_goal, goal_classification and phase "assessment" in one store
// mutation; not_a_goal writes nothing and returns a corrective
// message. Oracle failures return an error with no store mutation.
//
// The caller is expected to hold the session lock.
func (c *Classifier) Classify(ctx context.Context, sessionID, userGoal string) (*Outcome, error) {
	var sb strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&sb, "- %s: %s\n", cat.name, cat.description)
	}

	prompt := fmt.Sprintf(`You are a financial goal classifier. Classify the following user goal into one of these categories:

%s
Be strict: if the goal names no concrete thing to save for, buy, or achieve financially, classify it as not_a_goal.

User's goal: %q

Respond with JSON in this exact format:
{
    "classification": "category_name",
    "reasoning": "brief explanation why this category fits"
}`, sb.String(), userGoal)

	raw, err := c.oracle.Complete(ctx, classifySystemPrompt, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("classify goal: %w", err)
	}

	var decoded struct {
		Classification string `json:"classification"`
		Reasoning      string `json:"reasoning"`
	}
	if err := oracle.DecodeObject(raw, &decoded); err != nil {
		return nil, fmt.Errorf("classify goal: %w", err)
	}

	if !ValidClassification(decoded.Classification) {
		c.logger.Debug("goal rejected", "session_id", sessionID, "goal", userGoal,
			"classification", decoded.Classification)
		return &Outcome{
			Classification: NotAGoal,
			Reasoning:      decoded.Reasoning,
			Accepted:       false,
			Message:        "That's a bit broad for me to plan around. What's a specific financial goal you have in mind - something to buy, save for, or pay off?",
		}, nil
	}

	_, err = c.store.Mutate(sessionID, func(p *profile.Profile) error {
		goal := userGoal
		classification := decoded.Classification
		p.UserGoal = &goal
		p.GoalClassification = &classification
		p.ConversationPhase = "assessment"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist goal classification: %w", err)
	}

	c.logger.Info("goal classified", "session_id", sessionID,
		"classification", decoded.Classification)

	return &Outcome{
		Classification: decoded.Classification,
		Reasoning:      decoded.Reasoning,
		Accepted:       true,
		Message:        fmt.Sprintf("Goal classified as: %s", decoded.Classification),
	}, nil
}
