// Package api provides an HTTP API server for querying and managing the
// retrieval engine.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
