// Package audit records order activity to MongoDB for after-the-fact
// review: who created, transitioned, renumbered or captured payment on an
// order. Writes happen off the request path; an audit failure never fails
// the operation it describes.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Entry struct {
	Action    string    `bson:"action"`
	OrderID   string    `bson:"order_id"`
	ActorID   uint      `bson:"actor_id,omitempty"`
	Data      bson.M    `bson:"data,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

type Trail struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewTrail(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*Trail, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Trail{
		client: client,
		coll:   client.Database(database).Collection(collection),
		logger: logger,
	}, nil
}

// Record writes the entry asynchronously with its own deadline, detached
// from the request context.
func (t *Trail) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := t.coll.InsertOne(ctx, entry); err != nil {
			t.logger.Warn("failed to write audit entry",
				zap.String("action", entry.Action),
				zap.String("order_id", entry.OrderID),
				zap.Error(err))
		}
	}()
}

func (t *Trail) Close(ctx context.Context) error {
	return t.client.Disconnect(ctx)
}
