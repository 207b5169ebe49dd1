package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/skyads/marketplace/internal/core/service"
	"github.com/skyads/marketplace/internal/infrastructure/db/gormstore"
	"github.com/skyads/marketplace/internal/infrastructure/idgen"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gormstore.Open(ctx, "sqlite", dsn, false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ids, err := idgen.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	users := gormstore.NewUserRepository(db)
	ads := gormstore.NewAdRepository(db)
	comments := gormstore.NewCommentRepository(db)
	images := gormstore.NewImageStore(db)

	reg := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		Users:         service.NewUserService(users, images, ids, "router-secret", time.Hour, zerolog.Nop()),
		Ads:           service.NewAdService(ads, users, images, ids, nil, zerolog.Nop()),
		Comments:      service.NewCommentService(comments, ads, users, ids, zerolog.Nop()),
		JWTSecret:     "router-secret",
		ImageMaxBytes: 1 << 20,
		Logger:        zerolog.Nop(),
		Registerer:    reg,
		Gatherer:      reg,
	})
	return &testServer{t: t, e: e}
}

// credentials are applied to a request: either a bearer token or basic auth.
type credentials func(*http.Request)

func bearer(token string) credentials {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func basic(email, password string) credentials {
	return func(r *http.Request) { r.SetBasicAuth(email, password) }
}

func (s *testServer) do(method, path string, body any, auth credentials) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != nil {
		auth(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(email, role string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", map[string]string{
		"username":  email,
		"password":  "password123",
		"firstName": "First",
		"lastName":  "Last",
		"phone":     "+70000000000",
		"role":      role,
	}, nil)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type adBody struct {
	Author int64  `json:"author"`
	Image  string `json:"image"`
	PK     int64  `json:"pk"`
	Price  int64  `json:"price"`
	Title  string `json:"title"`
}

type commentBody struct {
	Author          int64   `json:"author"`
	AuthorImage     *string `json:"authorImage"`
	AuthorFirstName string  `json:"authorFirstName"`
	CreatedAt       int64   `json:"createdAt"`
	PK              int64   `json:"pk"`
	Text            string  `json:"text"`
}

type collection[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func TestRouter_Marketplace(t *testing.T) {
	s := newTestServer(t)
	s.register("owner@example.com", "USER")
	s.register("other@example.com", "USER")
	s.register("admin@example.com", "ADMIN")

	login := s.do(http.MethodPost, "/login", map[string]string{"username": "owner@example.com", "password": "password123"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", login.Code, login.Body.String())
	}
	token := decode[struct {
		Token string `json:"token"`
	}](t, login).Token
	if token == "" {
		t.Fatal("expected a token")
	}
	owner := bearer(token)
	other := basic("other@example.com", "password123")
	admin := basic("admin@example.com", "password123")

	rec := s.do(http.MethodPost, "/ads", map[string]any{"title": "Bike", "price": 55555, "description": "red"}, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ad: status %d body %s", rec.Code, rec.Body.String())
	}
	ad := decode[adBody](t, rec)
	adPath := fmt.Sprintf("/ads/%d", ad.PK)

	// another user may read but not modify
	if rec := s.do(http.MethodPatch, adPath, map[string]any{"price": 1}, other); rec.Code != http.StatusForbidden {
		t.Fatalf("patch by other user: expected 403, got %d", rec.Code)
	}
	rec = s.do(http.MethodGet, adPath, nil, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("get ad: status %d", rec.Code)
	}
	detail := decode[map[string]any](t, rec)
	if detail["price"] != float64(55555) || detail["email"] != "owner@example.com" || detail["authorFirstName"] != "First" {
		t.Fatalf("unexpected detail: %v", detail)
	}
	if detail["author"] != float64(ad.Author) {
		t.Fatalf("detail author %v, want %d", detail["author"], ad.Author)
	}

	rec = s.do(http.MethodPatch, adPath, map[string]any{"price": 1}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch by admin: status %d body %s", rec.Code, rec.Body.String())
	}
	if updated := decode[adBody](t, rec); updated.Price != 1 || updated.Author != ad.Author {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	rec = s.do(http.MethodPost, adPath+"/comments", map[string]string{"text": "still available?"}, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("create comment: status %d body %s", rec.Code, rec.Body.String())
	}
	comment := decode[commentBody](t, rec)
	if comment.Text != "still available?" || comment.AuthorFirstName != "First" || comment.CreatedAt == 0 {
		t.Fatalf("unexpected comment: %+v", comment)
	}

	rec = s.do(http.MethodGet, adPath+"/comments", nil, owner)
	if got := decode[collection[commentBody]](t, rec); got.Count != 1 || got.Results[0].PK != comment.PK {
		t.Fatalf("unexpected comment list: %+v", got)
	}

	if rec := s.do(http.MethodDelete, adPath, nil, other); rec.Code != http.StatusForbidden {
		t.Fatalf("delete by other user: expected 403, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, adPath, nil, owner); rec.Code != http.StatusNoContent {
		t.Fatalf("delete by owner: expected 204, got %d", rec.Code)
	}
	commentPath := fmt.Sprintf("%s/comments/%d", adPath, comment.PK)
	if rec := s.do(http.MethodGet, commentPath, nil, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("comment of deleted ad: expected 404, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, adPath, nil, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted ad: expected 404, got %d", rec.Code)
	}
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)
	s.register("owner@example.com", "USER")

	for _, path := range []string{"/ads", "/ads/me", "/users/me", "/ads/1/comments"} {
		if rec := s.do(http.MethodGet, path, nil, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
	}
	if rec := s.do(http.MethodGet, "/ads", nil, basic("owner@example.com", "wrong-password")); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/ads", nil, bearer("not-a-token")); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
}

func TestRouter_UserProfile(t *testing.T) {
	s := newTestServer(t)
	s.register("owner@example.com", "USER")
	owner := basic("owner@example.com", "password123")

	rec := s.do(http.MethodGet, "/users/me", nil, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	me := decode[map[string]any](t, rec)
	for _, field := range []string{"id", "email", "firstName", "lastName", "phone", "role", "image"} {
		if _, ok := me[field]; !ok {
			t.Errorf("profile is missing %q: %v", field, me)
		}
	}
	if me["image"] != nil {
		t.Errorf("expected no avatar yet, got %v", me["image"])
	}

	rec = s.do(http.MethodPatch, "/users/me", map[string]string{"firstName": "Renamed"}, owner)
	if got := decode[map[string]any](t, rec); got["firstName"] != "Renamed" || got["lastName"] != "Last" {
		t.Fatalf("unexpected profile after update: %v", got)
	}

	rec = s.do(http.MethodPost, "/users/set_password", map[string]string{"currentPassword": "password123", "newPassword": "another-pass"}, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("set password: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/users/me", nil, owner); rec.Code != http.StatusUnauthorized {
		t.Errorf("old password: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/users/me", nil, basic("owner@example.com", "another-pass")); rec.Code != http.StatusOK {
		t.Errorf("new password: expected 200, got %d", rec.Code)
	}
}

func multipartAd(t *testing.T, properties string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="properties"; filename="properties.json"`)
	h.Set("Content-Type", "application/json")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte(properties))

	if image != nil {
		img, err := w.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		img.Write(image)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestRouter_MultipartCreateAndPublicImage(t *testing.T) {
	s := newTestServer(t)
	s.register("owner@example.com", "USER")

	body, contentType := multipartAd(t, `{"title":"Lamp","price":300,"description":"desk lamp"}`, pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/ads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	basic("owner@example.com", "password123")(req)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("multipart create: status %d body %s", rec.Code, rec.Body.String())
	}
	ad := decode[adBody](t, rec)
	want := fmt.Sprintf("/ads/image/%d", ad.PK)
	if ad.Image != want {
		t.Fatalf("expected image path %q, got %q", want, ad.Image)
	}

	// images are readable without credentials
	rec = s.do(http.MethodGet, ad.Image, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("image: status %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngHeader) {
		t.Error("served bytes differ from the upload")
	}

	// a non-image upload is rejected
	body, contentType = multipartAd(t, `{"title":"Lamp","price":300,"description":"desk lamp"}`, []byte("image"))
	req = httptest.NewRequest(http.MethodPost, "/ads", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	basic("owner@example.com", "password123")(req)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-image upload: expected 400, got %d", rec.Code)
	}
}

func TestRouter_SearchAndListMine(t *testing.T) {
	s := newTestServer(t)
	s.register("owner@example.com", "USER")
	s.register("other@example.com", "USER")
	owner := basic("owner@example.com", "password123")
	other := basic("other@example.com", "password123")

	s.do(http.MethodPost, "/ads", map[string]any{"title": "Red Bicycle", "price": 10, "description": "d"}, owner)
	s.do(http.MethodPost, "/ads", map[string]any{"title": "Blue bicycle", "price": 20, "description": "d"}, other)
	s.do(http.MethodPost, "/ads", map[string]any{"title": "Sofa", "price": 30, "description": "d"}, other)

	rec := s.do(http.MethodGet, "/ads/find/BICYCLE", nil, owner)
	if got := decode[collection[adBody]](t, rec); got.Count != 2 {
		t.Errorf("search: expected 2 results, got %+v", got)
	}

	rec = s.do(http.MethodGet, "/ads/me", nil, other)
	got := decode[collection[adBody]](t, rec)
	if got.Count != 2 || got.Results[0].Title != "Blue bicycle" || got.Results[1].Title != "Sofa" {
		t.Errorf("unexpected own ads: %+v", got)
	}

	rec = s.do(http.MethodGet, "/ads", nil, owner)
	if all := decode[collection[adBody]](t, rec); all.Count != 3 || len(all.Results) != 3 {
		t.Errorf("list: expected 3 ads, got %+v", all)
	}
}
