package agent

import (
	"fmt"
	"strings"

	"codeberg.org/qapilot/server/internal/environment"
)

// everything rendered into one reasoning turn
type promptContext struct {
	Tools         []Tool
	ToolNames     []string
	Environment   environment.Environment
	Domain        string
	History       []Message
	Query         string
	Steps         []Step
	MaxIterations int
}

// assembles the ReAct prompt for the next reasoning turn
func buildPrompt(p promptContext) string {
	var builder strings.Builder

	builder.WriteString("You are an AI-Powered Test Automation Assistant.\n")
	builder.WriteString("Answer the following questions as best you can. You have access to the following tools:\n")

	for _, tool := range p.Tools {
		builder.WriteString(formatTool(tool))
	}

	builder.WriteString("\n")
	fmt.Fprintf(&builder, "The current environment is %s and its domain is '%s'. ", p.Environment, p.Domain)
	builder.WriteString("Every tool already works against this domain, so never put a domain in the Action Input.\n")
	builder.WriteString("Action Input is either plain text for the tool's first parameter, or a JSON object with the parameters listed above.\n\n")

	builder.WriteString("Use the following format:\n")
	builder.WriteString("Question: the input question you must answer\n")
	builder.WriteString("Thought: you should always think about what to do\n")
	fmt.Fprintf(&builder, "Action: the action to take, should be one of [%s]\n", strings.Join(p.ToolNames, ", "))
	builder.WriteString("Action Input: the input to the action\n")
	builder.WriteString("Observation: the result of the action\n")
	fmt.Fprintf(&builder, "... (this Thought/Action/Action Input/Observation can repeat %d times)\n", p.MaxIterations)
	builder.WriteString("Thought: I now know the final answer\n")
	builder.WriteString("Final Answer: the final answer to the original input question\n\n")
	builder.WriteString("Begin!\n\n")

	for _, msg := range p.History {
		builder.WriteString(historyLabel(msg.Role))
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}

	builder.WriteString("Question: ")
	builder.WriteString(p.Query)
	builder.WriteString("\nThought:")
	builder.WriteString(formatScratchpad(p.Steps))

	return builder.String()
}

func formatTool(tool Tool) string {
	var params []string

	for _, p := range tool.Parameters() {
		requirement := "optional"
		if p.Required {
			requirement = "required"
		}

		params = append(params, fmt.Sprintf("%s (%s): %s", p.Name, requirement, p.Description))
	}

	return fmt.Sprintf("%s: %s Parameters: %s\n", tool.Name(), tool.Description(), strings.Join(params, "; "))
}

// renders prior steps the way the model would have written them
func formatScratchpad(steps []Step) string {
	var builder strings.Builder

	for _, step := range steps {
		if step.Thought != "" {
			builder.WriteString(" ")
			builder.WriteString(step.Thought)
		}

		if step.Action != "" {
			builder.WriteString("\nAction: ")
			builder.WriteString(step.Action)
			builder.WriteString("\nAction Input: ")
			builder.WriteString(step.ActionInput)
		}

		builder.WriteString("\nObservation: ")
		builder.WriteString(step.Observation)
		builder.WriteString("\nThought:")
	}

	return builder.String()
}

func historyLabel(role string) string {
	if role == "assistant" {
		return "AI"
	}

	return "Human"
}
