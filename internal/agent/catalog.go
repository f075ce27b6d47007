package agent

import (
	"strings"

	"github.com/hbollon/go-edlib"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// unknown names at least this similar to a tool name get a suggestion
const suggestionThreshold = 0.8

// the registered tools in prompt order, looked up by exact name
type Catalog struct {
	tools *orderedmap.OrderedMap[ToolName, Tool]
}

// builds the catalog of the three agent tools
func NewCatalog(kb KnowledgeBase, generator CodeGenerator, runner TestRunner) *Catalog {
	tools := orderedmap.New[ToolName, Tool]()

	for _, t := range []Tool{
		&generateTestCodeTool{generator: generator},
		&runJavaTestTool{runner: runner},
		&queryKnowledgeBaseTool{kb: kb},
	} {
		tools.Set(t.Name(), t)
	}

	return &Catalog{tools: tools}
}

// returns the tool registered under name; matching is exact and case-sensitive
func (c *Catalog) Lookup(name string) (Tool, bool) {
	return c.tools.Get(ToolName(name))
}

// returns the tools in registration order
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, c.tools.Len())

	for pair := c.tools.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}

	return out
}

// returns the tool names in registration order
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.tools.Len())

	for pair := c.tools.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, string(pair.Key))
	}

	return names
}

// returns the closest tool name to an unknown action, or "" when nothing is close
func (c *Catalog) Suggest(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	best := ""
	bestScore := float32(0)

	for _, candidate := range c.Names() {
		score := edlib.JaroWinklerSimilarity(strings.ToLower(name), strings.ToLower(candidate))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}

	if bestScore < suggestionThreshold {
		return ""
	}

	return best
}

// builds the observation for an action that names no registered tool
func (c *Catalog) unknownTool(action, input string) *ToolDispatchError {
	reason := action + " is not a valid tool, try one of [" + strings.Join(c.Names(), ", ") + "]."
	if hint := c.Suggest(action); hint != "" {
		reason += " Did you mean " + hint + "?"
	}

	return &ToolDispatchError{Input: input, Reason: reason}
}
