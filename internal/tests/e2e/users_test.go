//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/userdesk/apiserver/config"
	"github.com/userdesk/apiserver/internal/server"
)

const (
	serverPort = 18080

	rootToken = "root-e2e-token-1234567890abcdef1234567890abcdef123456789"
	userToken = "user-e2e-token-1234567890abcdef1234567890abcdef123456789"
)

func TestMain(m *testing.M) {
	setTestEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := seedAccounts(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed accounts: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestUserLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("u%d@e2e.com", time.Now().UnixNano())

	// Without a token the API must challenge.
	status, body := request(t, http.MethodGet, baseURL+"/v1/api/users/1", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d: %s", status, body)
	}
	if !strings.Contains(body, "Authentication required") {
		t.Fatalf("expected challenge body, got %s", body)
	}

	// Create as the regular user.
	status, body = request(t, http.MethodPost, baseURL+"/v1/api/users", userToken, map[string]any{
		"email":    email,
		"password": "12345678",
		"phone":    "+1",
	})
	if status != http.StatusCreated {
		t.Fatalf("create user status %d: %s", status, body)
	}
	var created struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == 0 || created.Email != email {
		t.Fatalf("unexpected create response: %s", body)
	}

	// The regular user may not fetch the new record; root may.
	status, _ = request(t, http.MethodGet, fmt.Sprintf("%s/v1/api/users/%d", baseURL, created.ID), userToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for other user's record, got %d", status)
	}

	status, body = request(t, http.MethodGet, fmt.Sprintf("%s/v1/api/users/%d", baseURL, created.ID), rootToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get as root status %d: %s", status, body)
	}
	if !strings.Contains(body, email) {
		t.Fatalf("expected email in GET body, got %s", body)
	}
	if strings.Contains(body, `"pass":"12345678"`) {
		t.Fatalf("plaintext password leaked: %s", body)
	}

	// Update as root.
	status, body = request(t, http.MethodPut, baseURL+"/v1/api/users", rootToken, map[string]any{
		"id":       created.ID,
		"email":    email,
		"password": "newpass1",
		"phone":    "+2",
	})
	if status != http.StatusOK {
		t.Fatalf("update status %d: %s", status, body)
	}

	// Delete is root-only.
	status, _ = request(t, http.MethodDelete, baseURL+"/v1/api/users", userToken, map[string]any{
		"id": created.ID,
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 deleting as regular user, got %d", status)
	}

	status, body = request(t, http.MethodDelete, baseURL+"/v1/api/users", rootToken, map[string]any{
		"id": created.ID,
	})
	if status != http.StatusOK {
		t.Fatalf("delete status %d: %s", status, body)
	}

	// A second delete must report the record gone.
	status, _ = request(t, http.MethodDelete, baseURL+"/v1/api/users", rootToken, map[string]any{
		"id": created.ID,
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", status)
	}
}

func request(t *testing.T, method, url, token string, payload any) (int, string) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(raw))
}

func seedAccounts() error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// bcrypt hash of "12345678"; the e2e flow never logs in so any valid
	// hash works.
	const hash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	var rootID, userID int
	if err := db.QueryRowContext(ctx,
		`INSERT INTO users (email, phone, roles, password) VALUES ($1, $2, '{ROOT}', $3) RETURNING id`,
		fmt.Sprintf("root%d@e2e.com", time.Now().UnixNano()), "+0", hash,
	).Scan(&rootID); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx,
		`INSERT INTO users (email, phone, roles, password) VALUES ($1, $2, '{USER}', $3) RETURNING id`,
		fmt.Sprintf("user%d@e2e.com", time.Now().UnixNano()), "+1", hash,
	).Scan(&userID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO api_tokens (token, user_id, expires_at) VALUES ($1, $2, now() + interval '1 day')`,
		rootToken, rootID,
	); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO api_tokens (token, user_id, expires_at) VALUES ($1, $2, now() + interval '1 day')`,
		userToken, userID,
	)
	return err
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func setTestEnv() {
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "userdesk")
	_ = os.Setenv("DB_PASSWORD", "userdesk")
	_ = os.Setenv("DB_NAME", "userdesk")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("MQ_BACKEND", "none")
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
