package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the secondary event store. Documents carry their own
// ObjectID; an event read from here is addressable only by that hex id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection("events"),
	}, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoEvent struct {
	OID   primitive.ObjectID `bson:"_id,omitempty"`
	Event `bson:",inline"`
}

func (d mongoEvent) toEvent() Event {
	e := d.Event
	e.ID = d.OID.Hex()
	return e
}

func (m *MongoStore) Insert(ctx context.Context, e Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := m.collection.InsertOne(ctx, mongoEvent{Event: e})
	if err != nil {
		return "", err
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *MongoStore) List(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	for cursor.Next(ctx) {
		var doc mongoEvent
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, doc.toEvent())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (m *MongoStore) Delete(ctx context.Context, hexID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return err
	}
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("no event with id %s", hexID)
	}
	return nil
}
