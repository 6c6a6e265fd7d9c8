// Package health provides shared types for admin API health responses.
package health

// Response represents the liveness response structure.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Service   string `json:"service"`
		StartedAt string `json:"started_at"`
		Uptime    string `json:"uptime"`
		UptimeSec int64  `json:"uptime_sec"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// ReadyResponse represents the readiness response structure.
type ReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		FTPPort  int `json:"ftp_port"`
		Sessions int `json:"sessions"`
		Users    int `json:"users"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}
