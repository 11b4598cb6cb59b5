package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mediaapi/internal/model"
	"mediaapi/internal/repository"
)

// mediaDocument is the BSON shape of a media record.
type mediaDocument struct {
	ID        string    `bson:"_id"`
	FileName  string    `bson:"file_name"`
	FileURL   string    `bson:"file_url"`
	FileType  string    `bson:"file_type"`
	FileSize  string    `bson:"file_size"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d mediaDocument) toModel() model.MediaRecord {
	return model.MediaRecord{
		ID:        d.ID,
		FileName:  d.FileName,
		FileURL:   d.FileURL,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MediaMongo is a MongoDB implementation of repository.MediaRepository.
type MediaMongo struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMediaMongo creates a repository over the given collection.
func NewMediaMongo(col *mongo.Collection) *MediaMongo {
	return &MediaMongo{col: col, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.MediaRepository = (*MediaMongo)(nil)

// EnsureIndexes creates the file_type lookup index.
func (r *MediaMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "file_type", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

// Create inserts the record, stamping createdAt/updatedAt.
func (r *MediaMongo) Create(ctx context.Context, rec *model.MediaRecord) (*model.MediaRecord, error) {
	now := r.now().Truncate(time.Millisecond)
	doc := mediaDocument{
		ID:        rec.ID,
		FileName:  rec.FileName,
		FileURL:   rec.FileURL,
		FileType:  rec.FileType,
		FileSize:  rec.FileSize,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	out := doc.toModel()
	return &out, nil
}

// FindByKind lists records of one file type, newest first.
func (r *MediaMongo) FindByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"file_type": string(kind)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]model.MediaRecord, 0)
	for cur.Next(ctx) {
		var d mediaDocument
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		items = append(items, d.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
