// Package control exposes the supervisor over a JSON-over-HTTP API on a
// unix socket, plus the client the CLI talks to it with.
package control

import (
	"github.com/qdash/qdash/internal/supervisor"
	"github.com/qdash/qdash/internal/vars"
)

// SocketName is the control socket's filename inside the artifact
// directory.
const SocketName = "qdash.sock"

// Response is the envelope every endpoint returns.
type Response struct {
	Status string         `json:"status"`
	Data   interface{}    `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError carries the structured error across the wire.
type ResponseError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// StartRequest asks the daemon to start a dashboard from a config file.
type StartRequest struct {
	ConfigPath string `json:"config_path"`
}

// VariableRequest sets one variable's value.
type VariableRequest struct {
	Value string `json:"value"`
}

// InstanceList wraps the list endpoint's payload.
type InstanceList struct {
	Instances []supervisor.Status `json:"instances"`
}

// VariableList wraps the variables endpoint's payload.
type VariableList struct {
	Variables []vars.Variable `json:"variables"`
}

// ResolvedSQL wraps the sql endpoint's payload.
type ResolvedSQL struct {
	SQL string `json:"sql"`
}
