package jobs

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fretline/fretline/pkg/errors"
)

// MongoStore is a durable job archive. Unlike the redis store nothing
// expires, so job history stays queryable after the retention window.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the mongo connection.
type MongoConfig struct {
	URI        string // e.g. "mongodb://localhost:27017"
	Database   string // defaults to "fretline"
	Collection string // defaults to "jobs"
}

// NewMongoStore connects to mongo and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "fretline"
	}
	if cfg.Collection == "" {
		cfg.Collection = "jobs"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo at %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo at %s", cfg.URI)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Create(ctx context.Context, job *Job) error {
	if _, err := s.coll.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New(errors.ErrCodeInvalidInput, "job %s already exists", job.ID)
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "store job %s", job.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load job %s", id)
	}
	return &job, nil
}

func (s *MongoStore) Update(ctx context.Context, job *Job) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store job %s", job.ID)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeJobNotFound, "job %s not found", job.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete job %s", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Job, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list jobs")
	}
	defer cursor.Close(ctx)

	var jobs []*Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode jobs")
	}
	return jobs, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
