package knowledge

import "codeberg.org/qapilot/server/internal/environment"

// returns the starter knowledge base, with domains taken from the bindings
func SeedDocuments(b *environment.Bindings) []Document {
	qa := b.Domain(environment.QA)
	stage := b.Domain(environment.Stage)
	prod := b.Domain(environment.Prod)

	return []Document{
		{
			ID:      "1",
			Content: "How to write a login test in Selenium Java: Find username field by ID, send keys, find password field by ID, send keys, click login button by ID. Use WebDriverWait for elements.",
			Metadata: map[string]string{
				MetaType:      "test_case",
				MetaFramework: "Selenium Java",
				MetaDomain:    environment.General,
			},
		},
		{
			ID:      "2",
			Content: "Bug: Login fails on Firefox due to 'Element not interactable' on username field after page reload on version 100. [WEB-456]",
			Metadata: map[string]string{
				MetaType:    "bug_report",
				MetaBrowser: "Firefox",
				MetaDomain:  environment.General,
			},
		},
		{
			ID:      "3",
			Content: "Coding Standard: All locators in Page Objects must use By.id or By.cssSelector. Avoid absolute XPaths.",
			Metadata: map[string]string{
				MetaType:     "guideline",
				MetaCategory: "coding_style",
				MetaDomain:   environment.General,
			},
		},
		{
			ID:      "4",
			Content: "What is Page Object Model: Design pattern to encapsulate UI elements and interactions.",
			Metadata: map[string]string{
				MetaType:   "concept",
				MetaDomain: environment.General,
			},
		},
		{
			ID:      "5",
			Content: "Bug: STAGE environment login issue. Users redirected to 'invalid_session' page after 3 failed attempts. [WEB-457]",
			Metadata: map[string]string{
				MetaType:        "bug_report",
				MetaEnvironment: string(environment.Stage),
				MetaDomain:      stage,
			},
		},
		{
			ID:      "6",
			Content: "Feature: STAGE environment new dashboard layout for beta users. Test element ID 'betaDashboardWelcome'.",
			Metadata: map[string]string{
				MetaType:        "feature_doc",
				MetaEnvironment: string(environment.Stage),
				MetaDomain:      stage,
			},
		},
		{
			ID:      "7",
			Content: "Bug: QA environment 'Sign in with Google' button sometimes not clickable. Investigate JavaScript errors. [WEB-458]",
			Metadata: map[string]string{
				MetaType:        "bug_report",
				MetaEnvironment: string(environment.QA),
				MetaDomain:      qa,
			},
		},
		{
			ID:      "8",
			Content: "Alert: PROD environment critical user flow: payment processing response times exceeding 500ms under load. Monitor 'paymentGatewayResponse' metric. [PROD-CRITICAL-1]",
			Metadata: map[string]string{
				MetaType:        "alert",
				MetaEnvironment: string(environment.Prod),
				MetaDomain:      prod,
			},
		},
	}
}
