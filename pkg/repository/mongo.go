package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/eshiroflex/pkg/config"
)

// AuditLogger writes order and payment events to MongoDB. Entries are
// best-effort: a failed write never fails the operation it describes.
type AuditLogger struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewAuditLogger(cfg *config.MongoDBConfig) (*AuditLogger, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (a *AuditLogger) Ping(ctx context.Context) error {
	return a.client.Ping(ctx, nil)
}

func (a *AuditLogger) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// AuditLog is one recorded event.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	UserID    string    `bson:"user_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func (a *AuditLogger) Record(ctx context.Context, action, entityID, userID string, data map[string]interface{}) error {
	collection := a.database.Collection(a.config.Collection)
	entry := &AuditLog{
		Service:   "storefront",
		Action:    action,
		EntityID:  entityID,
		UserID:    userID,
		Data:      bson.M(data),
		CreatedAt: time.Now(),
	}
	_, err := collection.InsertOne(ctx, entry)
	return err
}

func (a *AuditLogger) Logs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := a.database.Collection(a.config.Collection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
