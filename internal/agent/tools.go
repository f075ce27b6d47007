package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/codegen"
	"codeberg.org/qapilot/server/internal/executor"
)

type ToolName string

const (
	ToolGenerateTestCode   ToolName = "GenerateTestCode"
	ToolRunJavaTest        ToolName = "RunJavaTest"
	ToolQueryKnowledgeBase ToolName = "QueryKnowledgeBase"
)

// maximum build output kept in a RunJavaTest observation
const testOutputLimit = 2000

type Parameter struct {
	Name        string
	Description string
	Required    bool
}

// a tool the agent can call. the set is closed: only this package can implement it.
type Tool interface {
	Name() ToolName
	Description() string
	Parameters() []Parameter

	// runs the tool with the model's raw action input and the query's resolved domain
	invoke(ctx context.Context, rawInput, domain string) (string, error)
}

type QueryKnowledgeBaseInput struct {
	Query string `json:"query"`
}

type GenerateTestCodeInput struct {
	Query     string `json:"query"`
	Framework string `json:"framework,omitempty"`
}

type RunJavaTestInput struct {
	Code      string `json:"code"`
	ClassName string `json:"class_name,omitempty"`
}

type queryKnowledgeBaseTool struct {
	kb KnowledgeBase
}

func (t *queryKnowledgeBaseTool) Name() ToolName {
	return ToolQueryKnowledgeBase
}

func (t *queryKnowledgeBaseTool) Description() string {
	return "Retrieves contextual information from the automation knowledge base, scoped to the current environment."
}

func (t *queryKnowledgeBaseTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "query", Description: "the question to answer", Required: true},
	}
}

func (t *queryKnowledgeBaseTool) invoke(ctx context.Context, rawInput, domain string) (string, error) {
	in, err := parseInput(rawInput, func(s string) QueryKnowledgeBaseInput {
		return QueryKnowledgeBaseInput{Query: s}
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(in.Query) == "" {
		return "", missingParameter(ToolQueryKnowledgeBase, rawInput, "query")
	}

	return t.kb.Answer(ctx, in.Query, domain)
}

type generateTestCodeTool struct {
	generator CodeGenerator
}

func (t *generateTestCodeTool) Name() ToolName {
	return ToolGenerateTestCode
}

func (t *generateTestCodeTool) Description() string {
	return "Generates Java/TestNG/Selenium test code from a natural language description. Returns the Java source."
}

func (t *generateTestCodeTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "query", Description: "what the test should do", Required: true},
		{Name: "framework", Description: "test stack, default \"" + codegen.DefaultFramework + "\""},
	}
}

func (t *generateTestCodeTool) invoke(ctx context.Context, rawInput, domain string) (string, error) {
	in, err := parseInput(rawInput, func(s string) GenerateTestCodeInput {
		return GenerateTestCodeInput{Query: s}
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(in.Query) == "" {
		return "", missingParameter(ToolGenerateTestCode, rawInput, "query")
	}

	return t.generator.Generate(ctx, in.Query, in.Framework, domain)
}

type runJavaTestTool struct {
	runner TestRunner
}

func (t *runJavaTestTool) Name() ToolName {
	return ToolRunJavaTest
}

func (t *runJavaTestTool) Description() string {
	return "Executes a given block of Java test code with the build tool and returns PASS, FAIL or ERROR."
}

func (t *runJavaTestTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "code", Description: "the complete Java test class", Required: true},
		{Name: "class_name", Description: "test class name, inferred from the code when omitted"},
	}
}

func (t *runJavaTestTool) invoke(ctx context.Context, rawInput, _ string) (string, error) {
	in, err := parseInput(rawInput, func(s string) RunJavaTestInput {
		return RunJavaTestInput{Code: s}
	})
	if err != nil {
		return "", err
	}

	if code, ok := codegen.ExtractFencedBlock(in.Code, "java"); ok {
		in.Code = code
	}

	if strings.TrimSpace(in.Code) == "" {
		return "", missingParameter(ToolRunJavaTest, rawInput, "code")
	}

	if in.ClassName == "" {
		in.ClassName = executor.InferClassName(in.Code)
	}

	report, err := t.runner.RunTest(ctx, in.Code, in.ClassName)
	if errors.Is(err, auth.ErrCallerRequired) {
		return "Not run: " + err.Error() + ". The user must send a bearer token to run tests.", err
	}

	if err != nil {
		return fmt.Sprintf("%s: %v", executor.Error, err), err
	}

	return fmt.Sprintf("%s (exit code %d)\n%s", report.Verdict, report.ExitCode, report.Output(testOutputLimit)), nil
}

type callerGuard struct {
	runner TestRunner
}

// wraps runner so tests only run for a caller authenticated on the request
// context; used when the server has a JWT secret
func RequireCaller(runner TestRunner) TestRunner {
	return &callerGuard{runner: runner}
}

func (g *callerGuard) RunTest(ctx context.Context, code, className string) (*executor.Report, error) {
	if _, ok := auth.SubjectFromContext(ctx); !ok {
		return nil, auth.ErrCallerRequired
	}

	return g.runner.RunTest(ctx, code, className)
}

var keywordArg = regexp.MustCompile(`(\w+)\s*=\s*"((?:[^"\\]|\\.)*)"`)

// decodes an action input into a typed input. JSON objects and keyword
// arguments (query="...") are decoded by field; any other text becomes the
// tool's primary field.
func parseInput[T any](raw string, fromText func(string) T) (T, error) {
	var in T

	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return in, &ToolDispatchError{Input: raw, Reason: "action input is not valid JSON: " + err.Error()}
		}

		return in, nil
	}

	if matches := keywordArg.FindAllStringSubmatch(raw, -1); len(matches) > 0 && keywordArg.FindStringIndex(raw)[0] == 0 {
		fields := make(map[string]string, len(matches))
		for _, m := range matches {
			fields[canonicalField(m[1])] = unescape(m[2])
		}

		encoded, err := json.Marshal(fields)
		if err != nil {
			return in, &ToolDispatchError{Input: raw, Reason: err.Error()}
		}

		if err := json.Unmarshal(encoded, &in); err != nil {
			return in, &ToolDispatchError{Input: raw, Reason: "unsupported keyword arguments: " + err.Error()}
		}

		return in, nil
	}

	return fromText(strings.Trim(raw, `"`)), nil
}

// maps argument spellings the model tends to use onto input field names
func canonicalField(name string) string {
	switch name {
	case "user_query", "natural_language_query", "question":
		return "query"
	case "java_code":
		return "code"
	case "test_class_name", "className":
		return "class_name"
	default:
		return name
	}
}

func unescape(s string) string {
	return strings.NewReplacer(`\"`, `"`, `\n`, "\n", `\t`, "\t", `\\`, `\`).Replace(s)
}

func missingParameter(tool ToolName, raw, param string) error {
	return &ToolDispatchError{
		Action: string(tool),
		Input:  raw,
		Reason: fmt.Sprintf("missing required parameter %q", param),
	}
}
