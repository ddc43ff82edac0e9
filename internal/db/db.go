// Package db executes queries against the supported database kinds and
// normalizes every result to a uniform tabular shape.
//
// Each call opens a fresh connection, runs exactly one query, and closes
// the connection before returning. There is no pooling: a dashboard must
// hold no database resources between refreshes.
package db

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/qdash/qdash/internal/errors"
)

// Connector executes one query against a database URL.
type Connector interface {
	Execute(ctx context.Context, url, query string) (*QueryResult, error)
}

// ExecuteFunc matches Execute's signature so callers can inject a double.
type ExecuteFunc func(ctx context.Context, dbType, url, query string) (*QueryResult, error)

var connectors = map[string]Connector{}

// Register installs a connector for a database type. Called from init
// functions of the per-backend files.
func Register(dbType string, c Connector) {
	connectors[dbType] = c
}

// Execute dispatches to the connector registered for dbType. The context
// deadline bounds the whole call, including connection setup.
func Execute(ctx context.Context, dbType, url, query string) (*QueryResult, error) {
	c, ok := connectors[strings.ToLower(dbType)]
	if !ok {
		return nil, errors.New(errors.ErrScheme,
			fmt.Sprintf("Unsupported database type '%s'", dbType),
			"Supported types: "+supportedTypes())
	}

	result, err := c.Execute(ctx, url, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.WrapWithCode(err, errors.ErrConn,
				"Query timed out",
				"Raise database.timeout or simplify the query")
		}
		return nil, err
	}
	return result, nil
}

// SupportedTypes returns the registered database types, sorted.
func SupportedTypes() []string {
	types := make([]string, 0, len(connectors))
	for t := range connectors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func supportedTypes() string {
	return strings.Join(SupportedTypes(), ", ")
}
