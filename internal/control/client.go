package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/supervisor"
	"github.com/qdash/qdash/internal/vars"
)

// Client talks to a running daemon over its unix socket.
type Client struct {
	socketPath string
	http       *http.Client
}

// NewClient returns a client for the daemon behind the given socket.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Start asks the daemon to start a dashboard from a config file.
func (c *Client) Start(configPath string) (supervisor.Status, error) {
	var status supervisor.Status
	err := c.do(http.MethodPost, "/start", StartRequest{ConfigPath: configPath}, &status)
	return status, err
}

// Stop stops a dashboard by id or config path.
func (c *Client) Stop(id string) error {
	return c.do(http.MethodDelete, instancePath(id), nil, nil)
}

// Restart triggers an immediate refresh.
func (c *Client) Restart(id string) error {
	return c.do(http.MethodPost, instancePath(id)+"/restart", nil, nil)
}

// List returns the status of every running dashboard.
func (c *Client) List() ([]supervisor.Status, error) {
	var list InstanceList
	if err := c.do(http.MethodGet, "/instances", nil, &list); err != nil {
		return nil, err
	}
	return list.Instances, nil
}

// Status returns one dashboard's status.
func (c *Client) Status(id string) (supervisor.Status, error) {
	var status supervisor.Status
	err := c.do(http.MethodGet, instancePath(id), nil, &status)
	return status, err
}

// Variables returns a dashboard's variable snapshot.
func (c *Client) Variables(id string) ([]vars.Variable, error) {
	var list VariableList
	if err := c.do(http.MethodGet, instancePath(id)+"/variables", nil, &list); err != nil {
		return nil, err
	}
	return list.Variables, nil
}

// SetVariable updates one variable's value.
func (c *Client) SetVariable(id, key, value string) error {
	path := instancePath(id) + "/variables/" + url.PathEscape(key)
	return c.do(http.MethodPut, path, VariableRequest{Value: value}, nil)
}

// ResetVariables restores all variables to their defaults.
func (c *Client) ResetVariables(id string) error {
	return c.do(http.MethodPost, instancePath(id)+"/variables/reset", nil, nil)
}

// ResolvedSQL returns the query with current variable values substituted.
func (c *Client) ResolvedSQL(id string) (string, error) {
	var resolved ResolvedSQL
	if err := c.do(http.MethodGet, instancePath(id)+"/sql", nil, &resolved); err != nil {
		return "", err
	}
	return resolved.SQL, nil
}

func instancePath(id string) string {
	return "/instances/" + url.PathEscape(id)
}

// do issues one request and decodes the envelope. The host in the URL is
// a placeholder; the transport always dials the socket.
func (c *Client) do(method, path string, in, out interface{}) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, "http://qdash"+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConn,
			"Cannot reach the qdash daemon",
			"Start it with 'qdash serve', or pass --socket if it listens elsewhere")
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.WrapWithCode(err, errors.ErrConn,
			"Malformed response from the qdash daemon",
			"Check that the socket belongs to a qdash daemon")
	}

	if envelope.Status != "ok" {
		if envelope.Error != nil {
			code := envelope.Error.Code
			if code == "" {
				code = errors.ErrConn
			}
			return errors.New(code, envelope.Error.Message, envelope.Error.Suggestion)
		}
		return errors.New(errors.ErrConn,
			fmt.Sprintf("Daemon returned HTTP %d", resp.StatusCode), "")
	}

	if out != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	}
	return nil
}
