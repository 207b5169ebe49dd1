package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

func TestUserService_Register_Success(t *testing.T) {
	f := newFixture()

	profile, err := f.users.Register(context.Background(), ports.RegisterInput{
		Username:  "  TestUserEmail@gmail.com ",
		Password:  "testUserPassword",
		FirstName: "testUserFirstName",
		LastName:  "testUserLastName",
		Phone:     "+79444444444",
		Role:      "USER",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Email != "testuseremail@gmail.com" {
		t.Errorf("email must be normalised, got %q", profile.Email)
	}
	if profile.Role != "USER" || profile.Image != nil {
		t.Errorf("unexpected profile: %+v", profile)
	}

	stored := f.store.users[profile.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("testUserPassword")) != nil {
		t.Error("stored hash must match the registered password")
	}
	if stored.FirstName != "testUserFirstName" || stored.Phone != "+79444444444" {
		t.Errorf("unexpected stored user: %+v", stored)
	}
}

func TestUserService_Register_DuplicateEmailConflicts(t *testing.T) {
	f := newFixture()
	first := f.register(t, "dup@example.com", domain.RoleUser)
	before := *f.store.users[first.ID]

	_, err := f.users.Register(context.Background(), ports.RegisterInput{
		Username:  "dup@example.com",
		Password:  "otherPassword",
		FirstName: "Other",
		LastName:  "Person",
		Phone:     "+70000000000",
		Role:      "ADMIN",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	after := *f.store.users[first.ID]
	if after != before {
		t.Errorf("existing record must be unmodified: before %+v after %+v", before, after)
	}
	if len(f.store.users) != 1 {
		t.Errorf("expected 1 user, got %d", len(f.store.users))
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.users.Register(context.Background(), ports.RegisterInput{
		Username: "x@example.com", Password: "short", FirstName: "a", LastName: "b", Phone: "1", Role: "USER",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}

func TestUserService_Login(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "testEmail@gmail.com", domain.RoleAdmin)

	res, err := f.users.Login(context.Background(), "testEmail@gmail.com", "testPassword")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != actor.ID {
		t.Errorf("unexpected user %+v", res.User)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}); err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["sub"] != strconv.FormatInt(actor.ID, 10) || claims["role"] != "ADMIN" {
		t.Errorf("unexpected claims: %v", claims)
	}
	if claims["jti"] == "" {
		t.Error("token id must be set")
	}
}

func TestUserService_Login_InvalidCredentials(t *testing.T) {
	f := newFixture()
	f.register(t, "testEmail@gmail.com", domain.RoleUser)

	cases := []struct{ email, password string }{
		{"testEmail@gmail.com", "wrong"},
		{"ghost@gmail.com", "testPassword"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := f.users.Login(context.Background(), tc.email, tc.password); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("%s/%s: expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestUserService_Authenticate(t *testing.T) {
	f := newFixture()
	want := f.register(t, "basic@example.com", domain.RoleUser)

	got, err := f.users.Authenticate(context.Background(), "BASIC@example.com", "testPassword")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if *got != *want {
		t.Errorf("want %+v, got %+v", want, got)
	}
}

func TestUserService_Me(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "me@example.com", domain.RoleUser)

	profile, err := f.users.Me(context.Background(), actor)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profile.Email != "me@example.com" || profile.FirstName != "testFirstName" || profile.Role != "USER" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	if _, err := f.users.Me(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUserService_UpdateProfile_PartialLeavesOthersUnchanged(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "p@example.com", domain.RoleUser)

	profile, err := f.users.UpdateProfile(context.Background(), actor, ports.UpdateProfileInput{
		FirstName: strPtr("updatedFirstName"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.FirstName != "updatedFirstName" {
		t.Errorf("first name not updated: %+v", profile)
	}
	if profile.LastName != "testLastName" || profile.Phone != "+77777777777" {
		t.Errorf("omitted fields must be unchanged: %+v", profile)
	}

	// An empty payload changes nothing.
	again, err := f.users.UpdateProfile(context.Background(), actor, ports.UpdateProfileInput{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if again.FirstName != "updatedFirstName" || again.LastName != "testLastName" || again.Phone != "+77777777777" {
		t.Errorf("empty update must be a no-op: %+v", again)
	}
}

func TestUserService_UpdateProfile_RejectsBlankName(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "p@example.com", domain.RoleUser)

	_, err := f.users.UpdateProfile(context.Background(), actor, ports.UpdateProfileInput{LastName: strPtr("   ")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.store.users[actor.ID].LastName != "testLastName" {
		t.Error("rejected update must not modify the user")
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "pw@example.com", domain.RoleUser)

	err := f.users.UpdatePassword(context.Background(), actor, ports.UpdatePasswordInput{
		CurrentPassword: "testPassword",
		NewPassword:     "newTestPassword",
	})
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(f.store.users[actor.ID].PasswordHash), []byte("newTestPassword")) != nil {
		t.Error("new password must be stored")
	}
	if _, err := f.users.Login(context.Background(), "pw@example.com", "newTestPassword"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestUserService_UpdatePassword_WrongCurrentRejected(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "pw@example.com", domain.RoleUser)
	before := f.store.users[actor.ID].PasswordHash

	inputs := []ports.UpdatePasswordInput{
		{CurrentPassword: "wrong", NewPassword: "x"},
		{CurrentPassword: "wrong", NewPassword: "longEnoughPassword"},
		{CurrentPassword: "testPassword", NewPassword: ""},
	}
	for _, in := range inputs {
		err := f.users.UpdatePassword(context.Background(), actor, in)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected validation error, got %v", in, err)
		}
	}

	if f.store.users[actor.ID].PasswordHash != before {
		t.Error("stored credential hash must be unchanged")
	}
}

func TestUserService_UpdateAvatar(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "av@example.com", domain.RoleUser)

	err := f.users.UpdateAvatar(context.Background(), actor, ports.ImageUpload{ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}

	profile, _ := f.users.Me(context.Background(), actor)
	if profile.Image == nil || *profile.Image != "/users/image/"+strconv.FormatInt(actor.ID, 10) {
		t.Errorf("unexpected image reference: %v", profile.Image)
	}
	if profile.FirstName != "testFirstName" {
		t.Error("avatar update must not alter other fields")
	}

	img, err := f.users.Avatar(context.Background(), actor.ID)
	if err != nil || string(img.Data) != "png" || img.ContentType != "image/png" {
		t.Fatalf("unexpected avatar: %+v, %v", img, err)
	}
}

func TestUserService_UpdateAvatar_RejectsNonImage(t *testing.T) {
	f := newFixture()
	actor := f.register(t, "av@example.com", domain.RoleUser)

	err := f.users.UpdateAvatar(context.Background(), actor, ports.ImageUpload{ContentType: "text/plain", Data: []byte("hi")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.users.Avatar(context.Background(), actor.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected no stored avatar, got %v", err)
	}
}
