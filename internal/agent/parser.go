package agent

import (
	"regexp"
	"strings"
)

const (
	finalAnswerMarker = "Final Answer:"
	observationMarker = "\nObservation:"
)

var (
	actionPattern      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyPattern  = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputPattern = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// what the model decided in one reasoning turn
type decision struct {
	Thought     string
	Action      string
	ActionInput string
	FinalAnswer string
	Final       bool
}

// parses one model turn in the Thought/Action/Action Input/Final Answer format
func parseDecision(text string) (decision, error) {
	// the model sometimes invents the observation itself
	if idx := strings.Index(text, observationMarker); idx != -1 {
		text = text[:idx]
	}

	hasFinal := strings.Contains(text, finalAnswerMarker)
	match := actionPattern.FindStringSubmatch(text)

	switch {
	case match != nil && hasFinal:
		return decision{}, &ToolDispatchError{
			Input:  text,
			Reason: "Parsing LLM output produced both a final answer and a parse-able action. Reply with either an Action or a Final Answer, not both.",
		}
	case match != nil:
		action := strings.TrimSpace(match[1])
		input := strings.Trim(strings.TrimSpace(match[2]), "\"")

		return decision{
			Thought:     cleanThought(text[:actionPattern.FindStringIndex(text)[0]]),
			Action:      action,
			ActionInput: input,
		}, nil
	case hasFinal:
		idx := strings.Index(text, finalAnswerMarker)
		answer := strings.TrimSpace(text[idx+len(finalAnswerMarker):])

		if answer == "" {
			return decision{}, &ToolDispatchError{Input: text, Reason: "Invalid Format: 'Final Answer:' is empty."}
		}

		return decision{
			Thought:     cleanThought(text[:idx]),
			FinalAnswer: answer,
			Final:       true,
		}, nil
	case !actionOnlyPattern.MatchString(text):
		return decision{}, &ToolDispatchError{Input: text, Reason: "Invalid Format: Missing 'Action:' after 'Thought:'"}
	case !actionInputPattern.MatchString(text):
		return decision{}, &ToolDispatchError{Input: text, Reason: "Invalid Format: Missing 'Action Input:' after 'Action:'"}
	default:
		return decision{}, &ToolDispatchError{Input: text, Reason: "Invalid Format: could not parse the response"}
	}
}

// strips the "Thought:" label from the reasoning that precedes an action or answer
func cleanThought(text string) string {
	thought := strings.TrimSpace(text)
	thought = strings.TrimPrefix(thought, "Thought:")

	return strings.TrimSpace(thought)
}
