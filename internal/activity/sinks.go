package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-ticketing/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Name() string { return "slog" }

func (s *SlogSink) Write(ctx context.Context, a domain.Activity) error {
	level := slog.LevelInfo
	if !a.Success {
		level = slog.LevelWarn
	}

	attrs := []any{
		"activity_type", a.Type,
		"user_role", a.ActorRole,
		"success", a.Success,
		"details", a.Details,
	}
	if a.ActorID != nil {
		attrs = append(attrs, "user_id", a.ActorID.String())
	}
	if a.ErrorMessage != "" {
		attrs = append(attrs, "error_message", a.ErrorMessage)
	}

	s.logger.Log(ctx, level, "activity", attrs...)

	return nil
}

const LogsCollection = "logs"

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoSink stores activities as documents of the logs collection.
type MongoSink struct {
	coll inserter
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{coll: db.Collection(LogsCollection)}
}

type activityDocument struct {
	ActivityType string         `bson:"activity_type"`
	UserID       string         `bson:"user_id,omitempty"`
	UserRole     string         `bson:"user_role,omitempty"`
	Details      map[string]any `bson:"details,omitempty"`
	Success      bool           `bson:"success"`
	ErrorMessage string         `bson:"error_message,omitempty"`
	Timestamp    time.Time      `bson:"timestamp"`
}

func newActivityDocument(a domain.Activity) activityDocument {
	doc := activityDocument{
		ActivityType: string(a.Type),
		UserRole:     string(a.ActorRole),
		Details:      a.Details,
		Success:      a.Success,
		ErrorMessage: a.ErrorMessage,
		Timestamp:    a.OccurredAt,
	}

	if a.ActorID != nil {
		doc.UserID = a.ActorID.String()
	}

	return doc
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Write(ctx context.Context, a domain.Activity) error {
	_, err := s.coll.InsertOne(ctx, newActivityDocument(a))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

const DefaultQueue = "activity.logged"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes activities as persistent JSON messages to a durable
// queue through the default exchange.
type AMQPSink struct {
	ch    publisher
	queue string
}

// NewAMQPSink declares queue on ch and returns a sink publishing to it.
func NewAMQPSink(ch *amqp.Channel, queue string) (*AMQPSink, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &AMQPSink{ch: ch, queue: queue}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Write(ctx context.Context, a domain.Activity) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    a.OccurredAt,
		Type:         string(a.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}

	return nil
}
