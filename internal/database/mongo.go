package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

// UsersCollection is the collection holding user documents.
const UsersCollection = "users"

var errInsecureTLS = errors.New("mongo URI disables TLS certificate verification")

// ConnectMongo connects to the document store, confirms the primary is
// reachable and ensures the unique userName index exists. The returned
// client must be disconnected by the caller.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Collection, error) {
	if err := checkMongoTLS(uri); err != nil {
		return nil, nil, &ConnectionError{Store: "mongo", Err: err}
	}

	opts := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, &ConnectionError{Store: "mongo", Err: err}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, &ConnectionError{Store: "mongo", Err: err}
	}

	coll := client.Database(database).Collection(UsersCollection)
	if err := EnsureUserIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, coll, nil
}

// checkMongoTLS refuses URIs that switch off certificate or host name
// verification.
func checkMongoTLS(uri string) error {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return err
	}
	switch {
	case cs.SSLInsecure:
		return fmt.Errorf("%w (tlsInsecure)", errInsecureTLS)
	case cs.SSLAllowInvalidCertificates:
		return fmt.Errorf("%w (tlsAllowInvalidCertificates)", errInsecureTLS)
	case cs.SSLAllowInvalidHostnames:
		return fmt.Errorf("%w (tlsAllowInvalidHostnames)", errInsecureTLS)
	}
	return nil
}

// EnsureUserIndexes creates the unique index on userName. Creating an
// existing identical index is a no-op.
func EnsureUserIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userName_unique"),
	})
	if err != nil {
		return &ConnectionError{Store: "mongo", Err: err}
	}
	return nil
}
