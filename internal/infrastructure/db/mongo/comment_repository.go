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

type CommentRepository struct {
	col *mongo.Collection
	ads *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{
		col: db.Collection(collectionComments),
		ads: db.Collection(collectionAds),
	}
}

type commentDoc struct {
	ID          int64  `bson:"_id"`
	AdID        int64  `bson:"ad_id"`
	OwnerUserID int64  `bson:"owner_user_id"`
	Text        string `bson:"text"`
	CreatedAt   int64  `bson:"created_at"`
	Version     int64  `bson:"version"`
}

func newCommentDoc(c *domain.Comment) commentDoc {
	return commentDoc{
		ID:          c.ID,
		AdID:        c.AdID,
		OwnerUserID: c.OwnerUserID,
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
	}
}

func (d commentDoc) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:          d.ID,
		AdID:        d.AdID,
		OwnerUserID: d.OwnerUserID,
		Text:        d.Text,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.adExists(ctx, c.AdID); err != nil {
		return err
	}

	if _, err := r.col.InsertOne(ctx, newCommentDoc(c)); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	// The ad may have been deleted between the check and the insert.
	if err := r.adExists(ctx, c.AdID); err != nil {
		if _, derr := r.col.DeleteOne(ctx, bson.M{"_id": c.ID}); derr != nil {
			return fmt.Errorf("remove orphan comment: %w", derr)
		}
		return err
	}
	return nil
}

func (r *CommentRepository) adExists(ctx context.Context, adID int64) error {
	n, err := r.ads.CountDocuments(ctx, bson.M{"_id": adID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check ad: %w", err)
	}
	if n == 0 {
		return domain.ErrAdNotFound
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := r.findOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) FindByAd(ctx context.Context, adID int64) ([]*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"ad_id": adID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	out := make([]*domain.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CommentRepository) Update(ctx context.Context, id int64, mutate func(*domain.Comment) error) (*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.findOne(ctx, id)
		if err != nil {
			return nil, err
		}

		c := current.toDomain()
		if err := mutate(c); err != nil {
			return nil, err
		}

		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": id, "version": current.Version},
			bson.M{"$set": bson.M{"text": c.Text, "version": current.Version + 1}},
		)
		if err != nil {
			return nil, fmt.Errorf("update comment: %w", err)
		}
		if res.MatchedCount == 1 {
			updated := current.toDomain()
			updated.Text = c.Text
			return updated, nil
		}
	}
	return nil, domain.ErrConcurrentUpdate
}

func (r *CommentRepository) Delete(ctx context.Context, id int64, check func(*domain.Comment) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.findOne(ctx, id)
		if err != nil {
			return err
		}
		if err := check(current.toDomain()); err != nil {
			return err
		}

		res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "version": current.Version})
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if res.DeletedCount == 1 {
			return nil
		}
	}
	return domain.ErrConcurrentUpdate
}

func (r *CommentRepository) findOne(ctx context.Context, id int64) (*commentDoc, error) {
	var doc commentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &doc, nil
}
