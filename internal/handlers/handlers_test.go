package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/userdesk/apiserver/internal/mq"
	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/store"
	"github.com/userdesk/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	rootToken    = "root-test-token-1234567890abcdef1234567890abcdef12345678"
	userToken    = "user-test-token-1234567890abcdef1234567890abcdef12345678"
	user2Token   = "user2-test-token-234567890abcdef1234567890abcdef123456789"
	expiredToken = "expired-test-token-34567890abcdef1234567890abcdef1234567"
)

// --- fakes ---

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[int]types.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = f.nextID
	f.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]types.ApiToken
	users  *fakeUserRepo
}

func newFakeTokenRepo(users *fakeUserRepo) *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens: make(map[string]types.ApiToken),
		users:  users,
	}
}

func (f *fakeTokenRepo) FindValidUser(ctx context.Context, token string) (types.User, error) {
	record, ok := f.tokens[token]
	if !ok || !record.ExpiresAt.After(time.Now()) {
		return types.User{}, store.ErrNotFound
	}
	return f.users.GetByID(ctx, record.UserID)
}

func (f *fakeTokenRepo) Create(ctx context.Context, token types.ApiToken) (types.ApiToken, error) {
	f.tokens[token.Token] = token
	return token, nil
}

// --- harness ---

type testEnv struct {
	router *chi.Mux
	users  *fakeUserRepo

	rootID  int
	user1ID int
	user2ID int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	tokens := newFakeTokenRepo(users)

	seed := func(email, password, phone string, roles []string, token string, expiresAt time.Time) int {
		t.Helper()
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		user, err := users.Create(context.Background(), types.User{
			Email:        email,
			Phone:        phone,
			Roles:        roles,
			PasswordHash: string(hashed),
		})
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
		if token != "" {
			_, err = tokens.Create(context.Background(), types.ApiToken{
				Token:     token,
				UserID:    user.ID,
				ExpiresAt: expiresAt,
			})
			if err != nil {
				t.Fatalf("seed token: %v", err)
			}
		}
		return user.ID
	}

	valid := time.Now().Add(24 * time.Hour)
	env := &testEnv{users: users}
	env.rootID = seed("rt@t.com", "12345678", "+0000000", []string{types.RoleRoot}, rootToken, valid)
	env.user1ID = seed("u1@t.com", "12345678", "+1111111", []string{types.RoleUser}, userToken, valid)
	env.user2ID = seed("u2@t.com", "87654321", "+2222222", []string{types.RoleUser}, user2Token, valid)

	// Expired token bound to user 1.
	_, err := tokens.Create(context.Background(), types.ApiToken{
		Token:     expiredToken,
		UserID:    env.user1ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	userService := services.NewUserService(users, mq.NewEvents(mq.New(mq.NewNoopBackend())))
	tokenService := services.NewTokenService(tokens)

	router := chi.NewRouter()
	router.Route("/v1/api/users", func(r chi.Router) {
		r.Use(RequireAuth(tokenService))
		UsersRouter(r, userService)
	})
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return parsed
}

func missingFields(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["missing"].([]any)
	if !ok {
		t.Fatalf("expected missing list in body, got %v", body)
	}
	fields := make([]string, 0, len(raw))
	for _, value := range raw {
		fields = append(fields, value.(string))
	}
	sort.Strings(fields)
	return fields
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}
