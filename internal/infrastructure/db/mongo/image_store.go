package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skyads/marketplace/internal/core/domain"
)

// ImageStore keeps image bytes in a single collection keyed by
// (collection, owner_id). Images are capped well below the 16MB document limit.
type ImageStore struct {
	col *mongo.Collection
}

func NewImageStore(db *mongo.Database) *ImageStore {
	return &ImageStore{col: db.Collection(collectionImages)}
}

type imageDoc struct {
	Collection  string `bson:"collection"`
	OwnerID     int64  `bson:"owner_id"`
	ContentType string `bson:"content_type"`
	Data        []byte `bson:"data"`
}

func imageKey(collection string, ownerID int64) bson.M {
	return bson.M{"collection": collection, "owner_id": ownerID}
}

func (s *ImageStore) Save(ctx context.Context, img *domain.Image) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := imageDoc{
		Collection:  img.Collection,
		OwnerID:     img.OwnerID,
		ContentType: img.ContentType,
		Data:        img.Data,
	}
	_, err := s.col.ReplaceOne(ctx, imageKey(img.Collection, img.OwnerID), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

func (s *ImageStore) Load(ctx context.Context, collection string, ownerID int64) (*domain.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc imageDoc
	if err := s.col.FindOne(ctx, imageKey(collection, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("find image: %w", err)
	}
	return &domain.Image{
		Collection:  doc.Collection,
		OwnerID:     doc.OwnerID,
		ContentType: doc.ContentType,
		Data:        doc.Data,
	}, nil
}

func (s *ImageStore) Delete(ctx context.Context, collection string, ownerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, imageKey(collection, ownerID))
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
