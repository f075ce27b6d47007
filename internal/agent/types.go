package agent

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/qapilot/server/internal/executor"
)

var ErrEmptyQuery = errors.New("query cannot be empty")

// answers knowledge-base questions scoped to a domain
type KnowledgeBase interface {
	Answer(ctx context.Context, query, envDomain string) (string, error)
}

// produces test source code
type CodeGenerator interface {
	Generate(ctx context.Context, query, framework, envDomain string) (string, error)
}

// runs generated tests
type TestRunner interface {
	RunTest(ctx context.Context, code, className string) (*executor.Report, error)
}

// represents a single conversation turn
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // message content
}

// one reasoning iteration: what the model decided and what the tool returned
type Step struct {
	Iteration   int    `json:"iteration"`
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation"`
}

type Request struct {
	Query       string
	History     []Message
	Environment string // QA, STAGE or PROD; anything else resolves to PROD

	// called after every step, from the goroutine running the loop
	OnStep func(Step)
}

type Result struct {
	Answer     string `json:"answer"`
	Steps      []Step `json:"steps"`
	Iterations int    `json:"iterations"`
	Completed  bool   `json:"completed"` // the model produced a final answer
	Domain     string `json:"domain"`
}

// an action the model asked for that could not be dispatched.
// it is fed back to the model as an observation rather than ending the loop.
type ToolDispatchError struct {
	Action string
	Input  string
	Reason string
}

func (e *ToolDispatchError) Error() string {
	if e.Action == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}
