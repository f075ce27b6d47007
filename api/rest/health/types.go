package health

type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

type ReadyResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

type PingResponse struct {
	Message string `json:"message"`
}
