package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const generationsCollection = "generations"

type MongoGenerationRepo struct {
	col *mongo.Collection
}

func NewMongoGenerationRepo(db *mongo.Database) repository.GenerationRepository {
	col := db.Collection(generationsCollection)

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "created_at", Value: -1}}},
	})

	return &MongoGenerationRepo{
		col: col,
	}
}

func (r *MongoGenerationRepo) Save(ctx context.Context, g *entity.Generation) error {
	metrics.IncStoreOp("mongo", "put")

	if g == nil || g.ID == "" {
		return fmt.Errorf("generation id is required")
	}
	if _, err := r.col.InsertOne(ctx, g); err != nil {
		metrics.IncError("mongo_generation_repo", "save_error")
		return fmt.Errorf("insert generation %s: %w", g.ID, err)
	}
	return nil
}

func (r *MongoGenerationRepo) GetByID(ctx context.Context, id string) (*entity.Generation, error) {
	metrics.IncStoreOp("mongo", "get")

	var g entity.Generation
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("generation %s: %w", id, entity.ErrNotFound)
		}
		metrics.IncError("mongo_generation_repo", "get_error")
		return nil, fmt.Errorf("find generation %s: %w", id, err)
	}
	return &g, nil
}

func (r *MongoGenerationRepo) List(ctx context.Context, limit int) ([]*entity.Generation, error) {
	metrics.IncStoreOp("mongo", "list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		metrics.IncError("mongo_generation_repo", "list_error")
		return nil, fmt.Errorf("find generations: %w", err)
	}
	defer func() {
		err := cur.Close(ctx)
		if err != nil {
			log.Printf("close cursor err: %s", err)
		}
	}()

	var out []*entity.Generation
	for cur.Next(ctx) {
		var g entity.Generation
		if err := cur.Decode(&g); err != nil {
			metrics.IncError("mongo_generation_repo", "list_decode_error")
			return nil, fmt.Errorf("decode generation: %w", err)
		}
		out = append(out, &g)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_generation_repo", "list_cursor_error")
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return out, nil
}

func (r *MongoGenerationRepo) Delete(ctx context.Context, id string) error {
	metrics.IncStoreOp("mongo", "delete")

	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_generation_repo", "delete_error")
		return fmt.Errorf("delete generation %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("generation %s: %w", id, entity.ErrNotFound)
	}
	return nil
}
