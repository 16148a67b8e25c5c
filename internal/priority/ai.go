package priority

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/horae/internal/llm"
)

const scoringSystemPrompt = `You prioritize a knowledge worker's tasks for the coming week.
Score every task between 0 and 10, where 10 means "do this first".
Weigh deadlines, the user's own priority ranking, project importance and task size.
Respond with a single JSON object of the form {"task_priorities": {"<task_id>": <score>, ...}} and nothing else.
Include every task id you were given.`

// AIOracle asks the configured chat model for scores.
type AIOracle struct {
	client llm.Client
}

// NewAIOracle creates an Oracle backed by the given chat client.
func NewAIOracle(client llm.Client) *AIOracle {
	return &AIOracle{client: client}
}

// scoringEnvelope is the context document sent as the user prompt.
type scoringEnvelope struct {
	WeekStart   string           `json:"week_start"`
	Tasks       []TaskContext    `json:"tasks"`
	Allocations []allocationInfo `json:"project_allocations,omitempty"`
	UserPrompt  string           `json:"user_notes,omitempty"`
}

type allocationInfo struct {
	ProjectID      string  `json:"project_id"`
	TargetHours    float64 `json:"target_hours"`
	PriorityWeight float64 `json:"priority_weight"`
}

type scoringResult struct {
	TaskPriorities map[string]float64 `json:"task_priorities"`
}

func (o *AIOracle) Priorities(ctx context.Context, req Request) (map[string]float64, error) {
	envelope := scoringEnvelope{
		WeekStart:  req.WeekStart.Format("2006-01-02"),
		Tasks:      req.Tasks,
		UserPrompt: req.UserPrompt,
	}
	for _, a := range req.Allocations {
		envelope.Allocations = append(envelope.Allocations, allocationInfo{
			ProjectID:      a.ProjectID,
			TargetHours:    a.TargetHours,
			PriorityWeight: a.PriorityWeight,
		})
	}

	prompt, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding scoring envelope: %w", err)
	}

	resp, err := o.client.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: scoringSystemPrompt,
		UserPrompt:   string(prompt),
	})
	if err != nil {
		return nil, err
	}

	result, err := llm.ExtractJSON[scoringResult](resp.Text, func(r scoringResult) error {
		if r.TaskPriorities == nil {
			return fmt.Errorf("missing task_priorities key")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result.TaskPriorities, nil
}

var _ Oracle = (*AIOracle)(nil)
