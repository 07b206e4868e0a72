package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/polycrawl/internal/idutil"
	"github.com/IshaanNene/polycrawl/internal/model"
)

// Mongo persists CrawlingResults to a MongoDB collection: connect and
// ping at construction time, then InsertOne/Find with a timeout-bound
// context per call.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongo connects to uri and returns a Mongo store backed by
// database.collection.
func NewMongo(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo store: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo store: ping: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

type mongoField struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

type mongoOutput struct {
	SourceName    string       `bson:"sourceName"`
	SourceID      string       `bson:"sourceId"`
	StartedByName string       `bson:"startedByName"`
	StartedByID   string       `bson:"startedById"`
	Input         string       `bson:"input"`
	Data          [][]mongoField `bson:"data"`
	Timestamp     int64        `bson:"timestamp"`
}

type mongoDoc struct {
	ID            string        `bson:"_id"`
	InitialInputs []string      `bson:"initialInputs"`
	Outputs       []mongoOutput `bson:"outputs"`
	StartMs       int64         `bson:"startMs"`
	EndMs         int64         `bson:"endMs"`
}

func toMongoDoc(id string, r model.CrawlingResult) mongoDoc {
	outputs := make([]mongoOutput, len(r.Context))
	for i, o := range r.Context {
		data := make([][]mongoField, len(o.Data))
		for j, rec := range o.Data {
			fields := make([]mongoField, len(rec))
			for k, f := range rec {
				fields[k] = mongoField{Key: f.Key, Value: f.Value}
			}
			data[j] = fields
		}
		outputs[i] = mongoOutput{
			SourceName:    o.Source.Name,
			SourceID:      o.Source.ID,
			StartedByName: o.StartedBy.Name,
			StartedByID:   o.StartedBy.ID,
			Input:         o.Input,
			Data:          data,
			Timestamp:     o.Timestamp,
		}
	}
	return mongoDoc{
		ID:            id,
		InitialInputs: r.InitialInputs,
		Outputs:       outputs,
		StartMs:       r.Duration.StartMs,
		EndMs:         r.Duration.EndMs,
	}
}

func fromMongoDoc(d mongoDoc) model.CrawlingResult {
	outputs := make([]model.StoredOutput, len(d.Outputs))
	for i, o := range d.Outputs {
		data := make([]model.StoredRecord, len(o.Data))
		for j, fields := range o.Data {
			rec := make(model.StoredRecord, len(fields))
			for k, f := range fields {
				rec[k] = model.StoredField{Key: f.Key, Value: f.Value}
			}
			data[j] = rec
		}
		outputs[i] = model.StoredOutput{
			Source:    model.Source{Name: o.SourceName, ID: o.SourceID},
			StartedBy: model.Source{Name: o.StartedByName, ID: o.StartedByID},
			Input:     o.Input,
			Data:      data,
			Timestamp: o.Timestamp,
		}
	}
	return model.CrawlingResult{
		InitialInputs: d.InitialInputs,
		Context:       outputs,
		Duration:      model.Duration{StartMs: d.StartMs, EndMs: d.EndMs},
	}
}

func (m *Mongo) Save(ctx context.Context, result model.CrawlingResult) (string, error) {
	id := idutil.New()
	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := m.collection.InsertOne(saveCtx, toMongoDoc(id, result)); err != nil {
		return "", fmt.Errorf("mongo store: insert: %w", err)
	}
	m.logger.Debug("result stored", "id", id, "outputs", len(result.Context))
	return id, nil
}

func (m *Mongo) GetByID(ctx context.Context, id string) (model.CrawlingResult, error) {
	getCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoDoc
	err := m.collection.FindOne(getCtx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return model.CrawlingResult{}, ErrNotFound
	}
	if err != nil {
		return model.CrawlingResult{}, fmt.Errorf("mongo store: find: %w", err)
	}
	return fromMongoDoc(doc), nil
}

func (m *Mongo) GetAll(ctx context.Context) ([]model.CrawlingResult, error) {
	listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cur, err := m.collection.Find(listCtx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo store: find all: %w", err)
	}
	defer cur.Close(listCtx)

	var out []model.CrawlingResult
	for cur.Next(listCtx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo store: decode: %w", err)
		}
		out = append(out, fromMongoDoc(doc))
	}
	return out, cur.Err()
}

func (m *Mongo) DeleteByID(ctx context.Context, id string) error {
	delCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := m.collection.DeleteOne(delCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo store: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteAll(ctx context.Context) error {
	delCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := m.collection.DeleteMany(delCtx, bson.M{})
	if err != nil {
		return fmt.Errorf("mongo store: delete all: %w", err)
	}
	return nil
}

// Close disconnects the underlying Mongo client.
func (m *Mongo) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Disconnect(closeCtx)
}
