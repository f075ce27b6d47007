package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/metrics"
	"codeberg.org/qapilot/server/internal/rag"
)

const (
	MinIterations = 3
	MaxIterations = 5

	DefaultTemperature = 0.5

	// consecutive model failures that end the loop early
	maxGenerationFailures = 2

	// observations quoted in the iteration-limit answer are cut to this length
	lastObservationLimit = 1500
)

type Config struct {
	Bindings      *environment.Bindings
	MaxIterations int
	Temperature   float32
}

// runs the ReAct loop: the model picks a tool or answers, tools report back as observations
type Orchestrator struct {
	generator     llm.TextGenerator
	catalog       *Catalog
	bindings      *environment.Bindings
	maxIterations int
	temperature   float32
}

func New(generator llm.TextGenerator, catalog *Catalog, cfg Config) *Orchestrator {
	if cfg.Bindings == nil {
		cfg.Bindings = environment.DefaultBindings()
	}

	if cfg.MaxIterations < MinIterations {
		cfg.MaxIterations = MinIterations
	}

	if cfg.MaxIterations > MaxIterations {
		cfg.MaxIterations = MaxIterations
	}

	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	return &Orchestrator{
		generator:     generator,
		catalog:       catalog,
		bindings:      cfg.Bindings,
		maxIterations: cfg.MaxIterations,
		temperature:   cfg.Temperature,
	}
}

// answers the query. the result always carries a non-empty answer; the only
// error is an empty query.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	// resolved once; every tool call in this loop uses the same domain
	env := environment.Parse(req.Environment)
	domain := o.bindings.Domain(env)

	log := logger.FromContext(ctx).With("environment", env, "domain", domain)

	history := priorTurns(req.History, query)

	result := &Result{Domain: domain, Steps: []Step{}}
	failures := 0

	record := func(step Step) {
		result.Steps = append(result.Steps, step)
		if req.OnStep != nil {
			req.OnStep(step)
		}
	}

	for i := 1; i <= o.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			log.Warn("agent loop cancelled", "iteration", i, "error", err)

			result.Answer = cancelledAnswer(result.Steps)
			return o.finish(result, "cancelled"), nil
		}

		result.Iterations = i

		prompt := buildPrompt(promptContext{
			Tools:         o.catalog.Tools(),
			ToolNames:     o.catalog.Names(),
			Environment:   env,
			Domain:        domain,
			History:       history,
			Query:         query,
			Steps:         result.Steps,
			MaxIterations: o.maxIterations,
		})

		text, err := llm.Complete(ctx, o.generator, prompt, o.temperature)
		if err != nil {
			failures++
			log.Warn("agent reasoning call failed", "iteration", i, "error", err)

			record(Step{Iteration: i, Observation: "Error: the language model did not respond (" + err.Error() + ")"})

			if failures >= maxGenerationFailures {
				result.Answer = rag.SentinelAnswer
				return o.finish(result, "llm_failure"), nil
			}

			continue
		}

		failures = 0

		d, err := parseDecision(text)
		if err != nil {
			log.Debug("agent output could not be parsed", "iteration", i, "error", err)
			metrics.ToolInvocationsTotal.WithLabelValues("", "invalid").Inc()

			record(Step{Iteration: i, Observation: err.Error()})

			continue
		}

		if d.Final {
			result.Answer = d.FinalAnswer
			result.Completed = true
			return o.finish(result, "final_answer"), nil
		}

		record(Step{
			Iteration:   i,
			Thought:     d.Thought,
			Action:      d.Action,
			ActionInput: d.ActionInput,
			Observation: o.dispatch(ctx, log, d.Action, d.ActionInput, domain),
		})
	}

	result.Answer = boundedAnswer(result.Steps, o.maxIterations)

	return o.finish(result, "iteration_limit"), nil
}

// runs the named tool and returns its observation; failures become observations too
func (o *Orchestrator) dispatch(ctx context.Context, log *slog.Logger, action, input, domain string) string {
	tool, ok := o.catalog.Lookup(action)
	if !ok {
		err := o.catalog.unknownTool(action, input)
		metrics.ToolInvocationsTotal.WithLabelValues("", "invalid").Inc()
		log.Warn("agent requested unknown tool", "action", action)

		return err.Error()
	}

	observation, err := tool.invoke(ctx, input, domain)

	var dispatchErr *ToolDispatchError

	switch {
	case errors.As(err, &dispatchErr):
		metrics.ToolInvocationsTotal.WithLabelValues(string(tool.Name()), "invalid").Inc()
		log.Warn("agent tool input rejected", "tool", tool.Name(), "error", err)

		return "Invalid input for " + string(tool.Name()) + ": " + dispatchErr.Reason
	case err != nil:
		metrics.ToolInvocationsTotal.WithLabelValues(string(tool.Name()), "error").Inc()
		log.Warn("agent tool failed", "tool", tool.Name(), "error", err)

		if observation == "" {
			observation = "Error: " + err.Error()
		}

		return observation
	default:
		metrics.ToolInvocationsTotal.WithLabelValues(string(tool.Name()), "ok").Inc()
		log.Info("agent tool dispatched", "tool", tool.Name())

		if strings.TrimSpace(observation) == "" {
			observation = "(no output)"
		}

		return observation
	}
}

func (o *Orchestrator) finish(result *Result, outcome string) *Result {
	metrics.AgentIterations.Observe(float64(result.Iterations))
	metrics.AgentOutcomesTotal.WithLabelValues(outcome).Inc()

	return result
}

// the answer given when the loop runs out of iterations
func boundedAnswer(steps []Step, maxIterations int) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Action == "" {
			continue
		}

		return fmt.Sprintf("Agent stopped after %d iterations. Last observation: %s", maxIterations, shorten(steps[i].Observation))
	}

	return fmt.Sprintf("I could not complete the request within %d steps.", maxIterations)
}

// the answer given when the request runs out of time
func cancelledAnswer(steps []Step) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Action == "" {
			continue
		}

		return "The request ran out of time before an answer was found. Last observation: " + shorten(steps[i].Observation)
	}

	return "The request ran out of time before an answer was found."
}

// cuts an observation to lastObservationLimit bytes on a rune boundary
func shorten(observation string) string {
	if len(observation) <= lastObservationLimit {
		return observation
	}

	cut := lastObservationLimit
	for cut > 0 && !utf8.RuneStart(observation[cut]) {
		cut--
	}

	return observation[:cut] + "..."
}

// drops the current query when the caller already appended it to the history
func priorTurns(history []Message, query string) []Message {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == "user" && strings.TrimSpace(last.Content) == query {
			return history[:n-1]
		}
	}

	return history
}
