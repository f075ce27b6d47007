package tests

// request payload for test code generation
type GenerateRequest struct {
	Query       string `json:"query" binding:"required"`
	Framework   string `json:"framework,omitempty"`   // defaults to Selenium Java TestNG
	Environment string `json:"environment,omitempty"` // QA, STAGE or PROD (default)
}

type GenerateResponse struct {
	Code      string `json:"code"`
	ClassName string `json:"class_name,omitempty"`
	Framework string `json:"framework"`
	Domain    string `json:"domain"`
}

// request payload for running a generated test
type RunRequest struct {
	Code      string `json:"code" binding:"required,max=200000"`
	ClassName string `json:"class_name,omitempty"`
}

type RunResponse struct {
	Verdict    string `json:"verdict"` // PASS, FAIL or ERROR
	ExitCode   int    `json:"exit_code"`
	Output     string `json:"output"`
	File       string `json:"file,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
