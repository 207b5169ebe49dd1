package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories, so that ad deletion can
// cascade into comments the way the real stores do.
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	ads      map[int64]*domain.Ad
	comments map[int64]*domain.Comment
	images   map[string]*domain.Image
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*domain.User),
		ads:      make(map[int64]*domain.Ad),
		comments: make(map[int64]*domain.Comment),
		images:   make(map[string]*domain.Image),
	}
}

type stubUserRepo struct{ s *memStore }

func (r stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

func (r stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUserRepo) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int64]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			clone := *u
			out[id] = &clone
		}
	}
	return out, nil
}

func (r stubUserRepo) Update(_ context.Context, id int64, mutate func(*domain.User) error) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	if err := mutate(&clone); err != nil {
		return nil, err
	}
	clone.ID = u.ID
	r.s.users[id] = &clone
	out := clone
	return &out, nil
}

type stubAdRepo struct{ s *memStore }

func (r stubAdRepo) Create(_ context.Context, ad *domain.Ad) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *ad
	r.s.ads[ad.ID] = &clone
	return nil
}

func (r stubAdRepo) FindByID(_ context.Context, id int64) (*domain.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ad, ok := r.s.ads[id]
	if !ok {
		return nil, domain.ErrAdNotFound
	}
	clone := *ad
	return &clone, nil
}

func (r stubAdRepo) FindAll(_ context.Context, f ports.AdFilter) ([]*domain.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Ad{}
	for _, ad := range r.s.ads {
		if f.OwnerID != 0 && ad.OwnerUserID != f.OwnerID {
			continue
		}
		if f.TitleContains != "" && !strings.Contains(strings.ToLower(ad.Title), strings.ToLower(f.TitleContains)) {
			continue
		}
		clone := *ad
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubAdRepo) Update(_ context.Context, id int64, mutate func(*domain.Ad) error) (*domain.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ad, ok := r.s.ads[id]
	if !ok {
		return nil, domain.ErrAdNotFound
	}
	clone := *ad
	if err := mutate(&clone); err != nil {
		return nil, err
	}
	clone.ID = ad.ID
	clone.OwnerUserID = ad.OwnerUserID
	r.s.ads[id] = &clone
	out := clone
	return &out, nil
}

func (r stubAdRepo) Delete(_ context.Context, id int64, check func(*domain.Ad) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ad, ok := r.s.ads[id]
	if !ok {
		return domain.ErrAdNotFound
	}
	clone := *ad
	if err := check(&clone); err != nil {
		return err
	}
	for cid, c := range r.s.comments {
		if c.AdID == id {
			delete(r.s.comments, cid)
		}
	}
	delete(r.s.ads, id)
	return nil
}

type stubCommentRepo struct{ s *memStore }

func (r stubCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ads[c.AdID]; !ok {
		return domain.ErrAdNotFound
	}
	clone := *c
	r.s.comments[c.ID] = &clone
	return nil
}

func (r stubCommentRepo) FindByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (r stubCommentRepo) FindByAd(_ context.Context, adID int64) ([]*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Comment{}
	for _, c := range r.s.comments {
		if c.AdID == adID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubCommentRepo) Update(_ context.Context, id int64, mutate func(*domain.Comment) error) (*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	clone := *c
	if err := mutate(&clone); err != nil {
		return nil, err
	}
	clone.ID, clone.AdID, clone.OwnerUserID, clone.CreatedAt = c.ID, c.AdID, c.OwnerUserID, c.CreatedAt
	r.s.comments[id] = &clone
	out := clone
	return &out, nil
}

func (r stubCommentRepo) Delete(_ context.Context, id int64, check func(*domain.Comment) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return domain.ErrCommentNotFound
	}
	clone := *c
	if err := check(&clone); err != nil {
		return err
	}
	delete(r.s.comments, id)
	return nil
}

type stubImageStore struct{ s *memStore }

func imageKey(collection string, id int64) string {
	return domain.ImagePath(collection, id)
}

func (r stubImageStore) Save(_ context.Context, img *domain.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *img
	r.s.images[imageKey(img.Collection, img.OwnerID)] = &clone
	return nil
}

func (r stubImageStore) Load(_ context.Context, collection string, id int64) (*domain.Image, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img, ok := r.s.images[imageKey(collection, id)]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	clone := *img
	return &clone, nil
}

func (r stubImageStore) Delete(_ context.Context, collection string, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := imageKey(collection, id)
	if _, ok := r.s.images[key]; !ok {
		return domain.ErrImageNotFound
	}
	delete(r.s.images, key)
	return nil
}

type seqIDs struct {
	mu   sync.Mutex
	next int64
}

func (g *seqIDs) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

// stubIdempotency records keys the way the Redis store does: a reserved key
// maps to 0 until an ad id is remembered.
type stubIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (s *stubIdempotency) Reserve(_ context.Context, userID int64, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = 0
	return true, nil
}

func (s *stubIdempotency) Lookup(_ context.Context, userID int64, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, userID int64, key string, adID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = adID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// failingImageStore rejects every write.
type failingImageStore struct{ stubImageStore }

func (failingImageStore) Save(context.Context, *domain.Image) error {
	return errors.New("blob down")
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	store    *memStore
	users    *UserService
	ads      *AdService
	comments *CommentService
	idem     *stubIdempotency
}

func newFixture() *fixture {
	store := newMemStore()
	ids := &seqIDs{next: 100}
	idem := &stubIdempotency{keys: map[string]int64{}}

	users := NewUserService(stubUserRepo{store}, stubImageStore{store}, ids, "secret", 0, discardLogger)
	users.hashCost = bcrypt.MinCost

	return &fixture{
		store:    store,
		users:    users,
		ads:      NewAdService(stubAdRepo{store}, stubUserRepo{store}, stubImageStore{store}, ids, idem, discardLogger),
		comments: NewCommentService(stubCommentRepo{store}, stubAdRepo{store}, stubUserRepo{store}, ids, discardLogger),
		idem:     idem,
	}
}

// register creates a user through the service and returns its actor.
func (f *fixture) register(t *testing.T, email string, role domain.Role) *domain.Actor {
	t.Helper()
	profile, err := f.users.Register(context.Background(), ports.RegisterInput{
		Username:  email,
		Password:  "testPassword",
		FirstName: "testFirstName",
		LastName:  "testLastName",
		Phone:     "+77777777777",
		Role:      string(role),
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return &domain.Actor{ID: profile.ID, Role: role}
}

func (f *fixture) createAd(t *testing.T, actor *domain.Actor, title string, price int64) int64 {
	t.Helper()
	res, err := f.ads.Create(context.Background(), actor, ports.CreateAdInput{
		Title:       title,
		Price:       price,
		Description: "testDescription",
	})
	if err != nil {
		t.Fatalf("create ad: %v", err)
	}
	return res.Ad.ID
}

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }
