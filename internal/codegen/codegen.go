package codegen

import (
	"context"
	"fmt"
	"strings"
)

const DefaultFramework = "Selenium Java TestNG"

// the subset of the RAG answerer the generator depends on
type Answerer interface {
	Answer(ctx context.Context, query, envDomain string) (string, error)
}

// produces test source code from a natural-language request
type Generator struct {
	answerer Answerer
}

func New(answerer Answerer) *Generator {
	return &Generator{answerer: answerer}
}

// generates a test for the query. the code inside the first ```java block is returned;
// when the model answers without one the raw response is returned unchanged.
func (g *Generator) Generate(ctx context.Context, query, framework, envDomain string) (string, error) {
	if strings.TrimSpace(framework) == "" {
		framework = DefaultFramework
	}

	fullQuery := fmt.Sprintf("%s using %s", query, framework)

	response, err := g.answerer.Answer(ctx, buildSystemPrompt(framework)+"\nUser Query: "+fullQuery, envDomain)
	if err != nil {
		return "", err
	}

	if code, ok := ExtractFencedBlock(response, "java"); ok {
		return code, nil
	}

	return response, nil
}

func buildSystemPrompt(framework string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an expert %s Test Automation Engineer.\n", framework)
	sb.WriteString("Generate a complete and runnable test case based on the user's request.\n")
	sb.WriteString("Include necessary imports, class structure, and a single @Test method.\n")
	sb.WriteString("Use explicit waits (WebDriverWait) for element interactions in Selenium/Playwright.\n")
	sb.WriteString("Use standard assertion libraries (e.g., TestNG Assert).\n")
	sb.WriteString("If the query mentions a browser, configure the WebDriver for that browser.\n")
	sb.WriteString("If a locator type (id, xpath, css) is not specified, make a reasonable guess.\n")
	sb.WriteString("Assume common test methods like 'driver.get()', 'driver.findElement()', 'sendKeys()', 'click()'.\n\n")
	sb.WriteString("Provide the code strictly within a Java code block (```java ... ```).\n")

	return sb.String()
}
