package tui

import (
	"fmt"
	"strings"
	"time"
)

const (
	typeAgentRequest  = "agent_request"
	typeAgentStep     = "agent_step"
	typeAgentResponse = "agent_response"
	typeSessionState  = "session_state"
	typeError         = "error"
)

const (
	// an agent run may build and run a test suite
	agentRequestTimeout = 10 * time.Minute
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	writeWait           = 10 * time.Second

	maxObservationPreview = 160
)

func formatMetadata(domain string, iterations int, completed bool) string {
	status := "answered"
	if !completed {
		status = "stopped at iteration limit"
	}

	return fmt.Sprintf("domain: %s | iterations: %d | %s", domain, iterations, status)
}

// one line per step, observations shortened
func formatStep(step StepView) string {
	if step.Action == "" {
		return fmt.Sprintf("[%d] %s", step.Iteration, preview(step.Observation))
	}

	return fmt.Sprintf("[%d] %s(%s) → %s", step.Iteration, step.Action, preview(step.ActionInput), preview(step.Observation))
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	if len(s) > maxObservationPreview {
		return s[:maxObservationPreview] + "…"
	}

	return s
}
