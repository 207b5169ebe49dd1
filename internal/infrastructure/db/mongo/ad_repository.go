package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

type AdRepository struct {
	db       *mongo.Database
	col      *mongo.Collection
	comments *mongo.Collection
	// transactional runs the cascade delete inside a multi-document
	// transaction, which needs a replica set.
	transactional bool
}

func NewAdRepository(db *mongo.Database, transactional bool) *AdRepository {
	return &AdRepository{
		db:            db,
		col:           db.Collection(collectionAds),
		comments:      db.Collection(collectionComments),
		transactional: transactional,
	}
}

type adDoc struct {
	ID          int64     `bson:"_id"`
	OwnerUserID int64     `bson:"owner_user_id"`
	Title       string    `bson:"title"`
	Price       int64     `bson:"price"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	Version     int64     `bson:"version"`
}

func newAdDoc(ad *domain.Ad) adDoc {
	return adDoc{
		ID:          ad.ID,
		OwnerUserID: ad.OwnerUserID,
		Title:       ad.Title,
		Price:       ad.Price,
		Description: ad.Description,
		CreatedAt:   ad.CreatedAt.UTC(),
		UpdatedAt:   ad.UpdatedAt.UTC(),
	}
}

func (d adDoc) toDomain() *domain.Ad {
	return &domain.Ad{
		ID:          d.ID,
		OwnerUserID: d.OwnerUserID,
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, newAdDoc(ad)); err != nil {
		return fmt.Errorf("insert ad: %w", err)
	}
	return nil
}

func (r *AdRepository) FindByID(ctx context.Context, id int64) (*domain.Ad, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := r.findOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *AdRepository) FindAll(ctx context.Context, filter ports.AdFilter) ([]*domain.Ad, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, adQuery(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find ads: %w", err)
	}
	var docs []adDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode ads: %w", err)
	}

	out := make([]*domain.Ad, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// adQuery translates a filter into a mongo query. Title search is a
// case-insensitive substring match with the user input taken literally.
func adQuery(filter ports.AdFilter) bson.M {
	q := bson.M{}
	if filter.OwnerID != 0 {
		q["owner_user_id"] = filter.OwnerID
	}
	if filter.TitleContains != "" {
		q["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.TitleContains), Options: "i"}
	}
	return q
}

func (r *AdRepository) Update(ctx context.Context, id int64, mutate func(*domain.Ad) error) (*domain.Ad, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.findOne(ctx, id)
		if err != nil {
			return nil, err
		}

		ad := current.toDomain()
		if err := mutate(ad); err != nil {
			return nil, err
		}

		next := newAdDoc(ad)
		next.ID = current.ID
		next.OwnerUserID = current.OwnerUserID
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1

		res, err := r.col.ReplaceOne(ctx, bson.M{"_id": id, "version": current.Version}, next)
		if err != nil {
			return nil, fmt.Errorf("replace ad: %w", err)
		}
		if res.MatchedCount == 1 {
			return next.toDomain(), nil
		}
	}
	return nil, domain.ErrConcurrentUpdate
}

// Delete removes the comments before the ad. Without a transaction a failed
// comment sweep leaves the ad in place, and a comment inserted during the
// sweep is removed again by the parent re-check in CommentRepository.Create.
func (r *AdRepository) Delete(ctx context.Context, id int64, check func(*domain.Ad) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if !r.transactional {
		return r.deleteCascade(ctx, id, check)
	}

	sess, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.deleteCascade(sc, id, check)
	})
	return err
}

func (r *AdRepository) deleteCascade(ctx context.Context, id int64, check func(*domain.Ad) error) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.findOne(ctx, id)
		if err != nil {
			return err
		}
		if err := check(current.toDomain()); err != nil {
			return err
		}

		if _, err := r.comments.DeleteMany(ctx, bson.M{"ad_id": id}); err != nil {
			return fmt.Errorf("delete ad comments: %w", err)
		}

		res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "version": current.Version})
		if err != nil {
			return fmt.Errorf("delete ad: %w", err)
		}
		if res.DeletedCount == 1 {
			return nil
		}
	}
	return domain.ErrConcurrentUpdate
}

func (r *AdRepository) findOne(ctx context.Context, id int64) (*adDoc, error) {
	var doc adDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAdNotFound
		}
		return nil, fmt.Errorf("find ad: %w", err)
	}
	return &doc, nil
}
