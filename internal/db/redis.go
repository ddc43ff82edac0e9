package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/qdash/qdash/internal/errors"
)

func init() {
	Register("redis", &redisConnector{})
}

// redisConnector runs a single redis command and flattens the reply into
// a fixed tabular shape per command.
type redisConnector struct{}

func (c *redisConnector) Execute(ctx context.Context, rawURL, query string) (*QueryResult, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConn,
			"Invalid redis URL: "+rawURL,
			"Use the form redis://[:password@]host:6379/0")
	}

	client := redis.NewClient(opts)
	defer client.Close()

	args := strings.Fields(query)
	if len(args) == 0 {
		return nil, errors.New(errors.ErrQuery,
			"Empty redis command",
			"Set query.sql to a redis command, e.g. 'HGETALL stats'")
	}

	result, err := c.run(ctx, client, args)
	if err != nil {
		if isRedisDialError(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConn,
				"Cannot connect to "+redact(rawURL),
				"Check the redis server is reachable")
		}
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			fmt.Sprintf("Redis command '%s' failed", args[0]),
			"Check the command and key exist")
	}
	return result, nil
}

func (c *redisConnector) run(ctx context.Context, client *redis.Client, args []string) (*QueryResult, error) {
	cmd := strings.ToUpper(args[0])
	switch cmd {
	case "KEYS":
		if len(args) != 2 {
			return nil, fmt.Errorf("KEYS takes exactly one pattern")
		}
		keys, err := client.Keys(ctx, args[1]).Result()
		if err != nil {
			return nil, err
		}
		sort.Strings(keys)
		rows := make([][]string, len(keys))
		for i, k := range keys {
			rows[i] = []string{k}
		}
		return NewResult([]string{"key"}, rows), nil

	case "GET":
		if len(args) != 2 {
			return nil, fmt.Errorf("GET takes exactly one key")
		}
		val, err := client.Get(ctx, args[1]).Result()
		if err == redis.Nil {
			return NewResult([]string{"key", "value"}, nil), nil
		}
		if err != nil {
			return nil, err
		}
		return NewResult([]string{"key", "value"}, [][]string{{args[1], val}}), nil

	case "HGETALL":
		if len(args) != 2 {
			return nil, fmt.Errorf("HGETALL takes exactly one key")
		}
		fields, err := client.HGetAll(ctx, args[1]).Result()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		sort.Strings(names)
		rows := make([][]string, len(names))
		for i, f := range names {
			rows[i] = []string{f, fields[f]}
		}
		return NewResult([]string{"field", "value"}, rows), nil

	case "LRANGE":
		if len(args) != 4 {
			return nil, fmt.Errorf("LRANGE takes a key, start, and stop")
		}
		start, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("LRANGE start '%s' is not an integer", args[2])
		}
		stop, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("LRANGE stop '%s' is not an integer", args[3])
		}
		items, err := client.LRange(ctx, args[1], start, stop).Result()
		if err != nil {
			return nil, err
		}
		rows := make([][]string, len(items))
		for i, item := range items {
			rows[i] = []string{strconv.Itoa(i), item}
		}
		return NewResult([]string{"index", "value"}, rows), nil

	case "SMEMBERS":
		if len(args) != 2 {
			return nil, fmt.Errorf("SMEMBERS takes exactly one key")
		}
		members, err := client.SMembers(ctx, args[1]).Result()
		if err != nil {
			return nil, err
		}
		sort.Strings(members)
		rows := make([][]string, len(members))
		for i, m := range members {
			rows[i] = []string{m}
		}
		return NewResult([]string{"member"}, rows), nil
	}

	// Generic passthrough for any other command
	doArgs := make([]interface{}, len(args))
	for i, a := range args {
		doArgs[i] = a
	}
	reply, err := client.Do(ctx, doArgs...).Result()
	if err == redis.Nil {
		return NewResult([]string{"value"}, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return flattenReply(reply), nil
}

// flattenReply turns an arbitrary redis reply into rows under a single
// "value" column. Map replies get field/value columns.
func flattenReply(reply interface{}) *QueryResult {
	switch val := reply.(type) {
	case []interface{}:
		rows := make([][]string, len(val))
		for i, item := range val {
			rows[i] = []string{FormatValue(item)}
		}
		return NewResult([]string{"value"}, rows)
	case map[interface{}]interface{}:
		names := make([]string, 0, len(val))
		byName := make(map[string]string, len(val))
		for k, v := range val {
			name := FormatValue(k)
			names = append(names, name)
			byName[name] = FormatValue(v)
		}
		sort.Strings(names)
		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name, byName[name]}
		}
		return NewResult([]string{"field", "value"}, rows)
	default:
		return NewResult([]string{"value"}, [][]string{{FormatValue(reply)}})
	}
}

// isRedisDialError distinguishes connection failures from command errors.
func isRedisDialError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "NOAUTH") ||
		strings.Contains(msg, "WRONGPASS")
}
