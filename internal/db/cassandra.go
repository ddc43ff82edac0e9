package db

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/gocql/gocql"

	"github.com/qdash/qdash/internal/errors"
)

func init() {
	Register("cassandra", &cassandraConnector{})
}

// cassandraConnector passes CQL straight through; rows map to columns in
// result order.
type cassandraConnector struct{}

func (c *cassandraConnector) Execute(ctx context.Context, rawURL, query string) (*QueryResult, error) {
	cluster, err := cassandraCluster(rawURL)
	if err != nil {
		return nil, err
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConn,
			"Cannot connect to "+redact(rawURL),
			"Check the cassandra hosts and keyspace")
	}
	defer session.Close()

	iter := session.Query(query).WithContext(ctx).Iter()
	cols := iter.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}

	var rows [][]string
	for {
		raw := make([]interface{}, len(cols))
		for i := range raw {
			raw[i] = new(interface{})
		}
		if !iter.Scan(raw...) {
			break
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			row[i] = FormatValue(*(v.(*interface{})))
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			"CQL query failed",
			"Check the query syntax against the keyspace schema")
	}

	return NewResult(names, rows), nil
}

// cassandraCluster builds cluster config from a URL of the form
// cassandra://host1,host2:9042/keyspace.
func cassandraCluster(rawURL string) (*gocql.ClusterConfig, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConn,
			"Invalid cassandra URL: "+rawURL,
			"Use the form cassandra://host:9042/keyspace")
	}

	hosts := strings.Split(u.Hostname(), ",")
	if len(hosts) == 0 || hosts[0] == "" {
		return nil, errors.New(errors.ErrConn,
			"Cassandra URL has no hosts",
			"Use the form cassandra://host:9042/keyspace")
	}

	cluster := gocql.NewCluster(hosts...)
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, errors.New(errors.ErrConn,
				"Invalid cassandra port '"+port+"'", "")
		}
		cluster.Port = p
	}
	if keyspace := strings.TrimPrefix(u.Path, "/"); keyspace != "" {
		cluster.Keyspace = keyspace
	}
	if u.User != nil {
		pass, _ := u.User.Password()
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: u.User.Username(),
			Password: pass,
		}
	}
	return cluster, nil
}
