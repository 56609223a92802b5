package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/onestay/MarathonRegistry-API/api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implements Store on top of a MongoDB database. A single client (and its
// connection pool) is shared by all requests.
type Mongo struct {
	client       *mongo.Client
	marathons    *mongo.Collection
	applications *mongo.Collection
}

var _ Store = (*Mongo)(nil)

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(bsonOptions())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return NewMongo(client.Database(dbName)), nil
}

// bsonOptions decodes nested documents as maps so they encode to JSON objects.
func bsonOptions() *options.BSONOptions {
	return &options.BSONOptions{DefaultDocumentM: true}
}

// NewMongo returns a store using the marathons and applications collections of db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		client:       db.Client(),
		marathons:    db.Collection(MarathonCollection),
		applications: db.Collection(ApplicationCollection),
	}
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) ListMarathons(ctx context.Context, limit int64) ([]models.Document, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	return findAll(ctx, m.marathons, bson.M{}, opts)
}

func (m *Mongo) FindMarathon(ctx context.Context, id string) (models.Document, error) {
	return findByID(ctx, m.marathons, id)
}

func (m *Mongo) MarathonsByEmail(ctx context.Context, email string) ([]models.Document, error) {
	return findAll(ctx, m.marathons, bson.M{models.EmailField: email}, options.Find())
}

func (m *Mongo) InsertMarathon(ctx context.Context, doc models.Document) (*InsertResult, error) {
	return insert(ctx, m.marathons, doc)
}

func (m *Mongo) UpdateMarathon(ctx context.Context, id string, fields models.Document) (models.Document, error) {
	fields = models.WithoutID(fields)
	if len(fields) == 0 {
		// $set rejects an empty document; nothing to change.
		return m.FindMarathon(ctx, id)
	}

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc models.Document
	err = m.marathons.FindOneAndUpdate(ctx, bson.M{models.IDField: oid}, bson.M{"$set": fields}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", MarathonCollection, id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", MarathonCollection, id, err)
	}

	return doc, nil
}

func (m *Mongo) BackfillRegistrationCount(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{
		models.IDField:                oid,
		models.RegistrationCountField: bson.M{"$not": bson.M{"$type": "number"}},
	}
	update := bson.M{"$set": bson.M{models.RegistrationCountField: int64(0)}}

	// No match means the counter is already numeric or the marathon is gone.
	if _, err := m.marathons.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("backfill %s %s: %w", MarathonCollection, id, err)
	}

	return nil
}

func (m *Mongo) IncrementRegistrationCount(ctx context.Context, id string) error {
	return updateOne(ctx, m.marathons, id, bson.M{"$inc": bson.M{models.RegistrationCountField: 1}})
}

func (m *Mongo) DeleteMarathon(ctx context.Context, id string) error {
	return deleteOne(ctx, m.marathons, id)
}

func (m *Mongo) ApplicationsByEmail(ctx context.Context, email string) ([]models.Document, error) {
	return findAll(ctx, m.applications, bson.M{models.EmailField: email}, options.Find())
}

func (m *Mongo) InsertApplication(ctx context.Context, doc models.Document) (*InsertResult, error) {
	return insert(ctx, m.applications, doc)
}

func (m *Mongo) UpdateApplication(ctx context.Context, id string, fields models.Document) error {
	fields = models.WithoutID(fields)
	if len(fields) == 0 {
		_, err := findByID(ctx, m.applications, id)
		return err
	}

	return updateOne(ctx, m.applications, id, bson.M{"$set": fields})
}

func (m *Mongo) DeleteApplication(ctx context.Context, id string) error {
	return deleteOne(ctx, m.applications, id)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("parse id %q: %w", id, err)
	}

	return oid, nil
}

func findAll(ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]models.Document, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}

	docs := []models.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", col.Name(), err)
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return docs, nil
}

func findByID(ctx context.Context, col *mongo.Collection, id string) (models.Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = col.FindOne(ctx, bson.M{models.IDField: oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", col.Name(), id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}

	return doc, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc models.Document) (*InsertResult, error) {
	res, err := col.InsertOne(ctx, models.WithoutID(doc))
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", col.Name(), err)
	}

	return &InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func updateOne(ctx context.Context, col *mongo.Collection, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, bson.M{models.IDField: oid}, update)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", col.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", col.Name(), id, ErrNotFound)
	}

	return nil
}

func deleteOne(ctx context.Context, col *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{models.IDField: oid})
	if err != nil {
		return fmt.Errorf("delete from %s %s: %w", col.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", col.Name(), id, ErrNotFound)
	}

	return nil
}
