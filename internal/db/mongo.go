package db

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qdash/qdash/internal/errors"
)

func init() {
	Register("mongodb", &mongoConnector{})
}

// mongoQuery is the JSON query document a mongodb dashboard uses in place
// of SQL text.
type mongoQuery struct {
	Collection string                 `json:"collection"`
	Operation  string                 `json:"operation"`
	Filter     map[string]interface{} `json:"filter"`
	Pipeline   []interface{}          `json:"pipeline"`
	Limit      int64                  `json:"limit"`
}

type mongoConnector struct{}

func (c *mongoConnector) Execute(ctx context.Context, rawURL, query string) (*QueryResult, error) {
	var q mongoQuery
	if err := json.Unmarshal([]byte(query), &q); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery,
			"Mongodb query is not valid JSON",
			`Use a document like {"collection": "users", "operation": "find", "filter": {}}`)
	}
	if q.Collection == "" {
		return nil, errors.New(errors.ErrQuery,
			"Mongodb query is missing 'collection'", "")
	}
	if q.Operation == "" {
		q.Operation = "find"
	}

	dbName, err := mongoDatabase(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rawURL))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConn,
			"Cannot connect to "+redact(rawURL),
			"Check the mongodb URL")
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConn,
			"Cannot connect to "+redact(rawURL),
			"Check the mongodb server is reachable")
	}

	coll := client.Database(dbName).Collection(q.Collection)

	switch q.Operation {
	case "find":
		return c.find(ctx, coll, &q)
	case "aggregate":
		return c.aggregate(ctx, coll, &q)
	case "count":
		return c.count(ctx, coll, &q)
	}
	return nil, errors.New(errors.ErrQuery,
		fmt.Sprintf("Unsupported mongodb operation '%s'", q.Operation),
		"Use find, aggregate, or count")
}

func (c *mongoConnector) find(ctx context.Context, coll *mongo.Collection, q *mongoQuery) (*QueryResult, error) {
	filter := q.Filter
	if filter == nil {
		filter = map[string]interface{}{}
	}
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery, "Mongodb find failed", "")
	}
	return collectDocs(ctx, cursor)
}

func (c *mongoConnector) aggregate(ctx context.Context, coll *mongo.Collection, q *mongoQuery) (*QueryResult, error) {
	pipeline := q.Pipeline
	if pipeline == nil {
		pipeline = []interface{}{}
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery, "Mongodb aggregate failed", "")
	}
	return collectDocs(ctx, cursor)
}

func (c *mongoConnector) count(ctx context.Context, coll *mongo.Collection, q *mongoQuery) (*QueryResult, error) {
	filter := q.Filter
	if filter == nil {
		filter = map[string]interface{}{}
	}
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery, "Mongodb count failed", "")
	}
	return NewResult([]string{"count"}, [][]string{{strconv.FormatInt(n, 10)}}), nil
}

// collectDocs drains a cursor and flattens documents into columns sorted
// by key, with _id first.
func collectDocs(ctx context.Context, cursor *mongo.Cursor) (*QueryResult, error) {
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrQuery, "Mongodb cursor failed", "")
	}

	keySet := make(map[string]bool)
	for _, doc := range docs {
		for k := range doc {
			keySet[k] = true
		}
	}
	names := make([]string, 0, len(keySet))
	for k := range keySet {
		if k != "_id" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	if keySet["_id"] {
		names = append([]string{"_id"}, names...)
	}

	rows := make([][]string, len(docs))
	for i, doc := range docs {
		row := make([]string, len(names))
		for j, name := range names {
			if v, ok := doc[name]; ok {
				row[j] = mongoValue(v)
			}
		}
		rows[i] = row
	}
	return NewResult(names, rows), nil
}

// mongoValue stringifies a BSON value; ObjectIDs render as their hex form
// and nested documents as compact JSON.
func mongoValue(v interface{}) string {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format("2006-01-02T15:04:05Z07:00")
	case bson.M, bson.D, bson.A, []interface{}, map[string]interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return FormatValue(v)
	}
}

// mongoDatabase extracts the database name from the URL path.
func mongoDatabase(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConn,
			"Invalid mongodb URL: "+rawURL,
			"Use the form mongodb://host:27017/dbname")
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", errors.New(errors.ErrConn,
			"Mongodb URL has no database name",
			"Add the database to the URL path, e.g. mongodb://host:27017/metrics")
	}
	return name, nil
}
