package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/asset"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/mail"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/rating"
	"github.com/sakif/recipe-mate/internal/repository/sqlite"
	"github.com/sakif/recipe-mate/internal/validate"
	"github.com/sakif/recipe-mate/internal/worker"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeMailer records every message instead of sending it.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) (*mail.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, msg)
	return &mail.Delivery{MessageID: "fake", SentAt: time.Now()}, nil
}

// fakeHost is an asset.Host that keeps track of live assets.
type fakeHost struct {
	mu           sync.Mutex
	next         int
	live         map[string]bool
	deleted      []string
	uploadErr    error
	transformErr error
	deleteErr    error

	// deleteWait makes Delete wait that long, or until its context ends;
	// deleteCtxErr records the context error seen at that point.
	deleteWait   time.Duration
	deleteCtxErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{live: map[string]bool{}}
}

func (h *fakeHost) Upload(_ context.Context, u asset.Upload) (*asset.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.uploadErr != nil {
		return nil, h.uploadErr
	}
	h.next++
	id := fmt.Sprintf("recipes/photo-%d", h.next)
	h.live[id] = true
	return &asset.Asset{AssetID: id, PublicID: id, SecureURL: "https://cdn/" + id}, nil
}

func (h *fakeHost) Transform(_ context.Context, a *asset.Asset, variants []asset.Variant) (map[string]string, error) {
	if h.transformErr != nil {
		return nil, h.transformErr
	}
	urls := map[string]string{}
	for _, v := range variants {
		urls[v.Name] = a.SecureURL + "_" + v.Name
	}
	return urls, nil
}

func (h *fakeHost) Delete(ctx context.Context, publicID string) error {
	if h.deleteWait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(h.deleteWait):
		}
	}

	h.mu.Lock()
	h.deleteCtxErr = ctx.Err()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, publicID)
	if h.deleteErr != nil {
		return h.deleteErr
	}
	delete(h.live, publicID)
	return nil
}

func (h *fakeHost) liveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// inlineScheduler runs tasks on the caller's goroutine so rating updates
// are visible as soon as the service call returns.
type inlineScheduler struct{}

func (inlineScheduler) Submit(ctx context.Context, t worker.Task) error {
	return t.Run(ctx)
}

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================

type testEnv struct {
	db        *sqlite.DB
	now       time.Time
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    *fakeMailer
	assets    *fakeHost

	auth    *AuthService
	recipes *RecipeService
	reviews *ReviewService
	users   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		db:     db,
		now:    time.Now(),
		mailer: &fakeMailer{},
		assets: newFakeHost(),
	}
	env.tokens, err = auth.NewTokenService("test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	env.passwords = auth.NewPasswordServiceForTest("pepper", func() time.Time { return env.now })

	v := validate.New()
	agg := rating.NewAggregator(db, inlineScheduler{}, logger)

	env.auth = NewAuthService(db, db, env.tokens, env.passwords, env.mailer, v, "https://app.example.com/", logger)
	env.recipes = NewRecipeService(db, env.assets, v, logger)
	env.reviews = NewReviewService(db, db, agg, v, logger)
	env.users = NewUserService(db, env.passwords, v, logger)
	return env
}

func (e *testEnv) signUp(t *testing.T, first, email string) *model.User {
	t.Helper()
	u, err := e.auth.SignUp(context.Background(), model.SignUpRequest{
		FirstName:       first,
		LastName:        "Cook",
		Email:           email,
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) makeAdmin(t *testing.T, u *model.User) {
	t.Helper()
	u.Role = model.RoleAdmin
	require.NoError(t, e.db.UpdateUser(context.Background(), u))
}

func identity(u *model.User) auth.Identity {
	return auth.Identity{Claims: &auth.Claims{ID: u.ID, Email: u.Email}, User: u}
}

func ptr[T any](v T) *T { return &v }

func validRecipeRequest(name string) model.RecipeRequest {
	return model.RecipeRequest{
		Name:            ptr(name),
		Description:     ptr("good"),
		Ingredients:     ptr([]string{"rice"}),
		Steps:           ptr([]string{"cook"}),
		Type:            ptr("veg"),
		Course:          ptr("main-course"),
		PreparationTime: ptr(5.0),
		CookTime:        ptr(10.0),
	}
}

func testPhoto() *asset.Upload {
	return &asset.Upload{Filename: "dish.jpg", ContentType: "image/jpeg", Size: 3, Data: []byte{1, 2, 3}}
}

func (e *testEnv) createRecipe(t *testing.T, owner *model.User, name string) *model.Recipe {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), identity(owner), validRecipeRequest(name), testPhoto())
	require.NoError(t, err)
	return r
}

var errBoom = errors.New("boom")
