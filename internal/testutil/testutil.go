package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/studyhub/internal/api"
	"github.com/dom/studyhub/internal/config"
	"github.com/dom/studyhub/internal/logging"
	"github.com/dom/studyhub/internal/presence"
	"github.com/dom/studyhub/internal/repository"
	repoPostgres "github.com/dom/studyhub/internal/repository/postgres"
	"github.com/dom/studyhub/internal/revocation"
	"github.com/dom/studyhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_studyhub"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"revoked_tokens", "pdfs", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:              "0", // Random port
		Environment:       "test",
		LogLevel:          "error",
		CORSAllowedOrigin: "http://localhost:5173",
		AccessSecret:      "test-access-secret-for-testing-only",
		RefreshSecret:     "test-refresh-secret-for-testing-only",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		AWSBucketName:     "studyhub-test",
		ChannelTTL:        time.Hour,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Config   *config.Config
	Store    *FakeObjectStore
	QA       *FakeDocumentQA
	Issuer   *FakeRTCIssuer
}

// NewTestServer creates a complete test server backed by a real database.
// Redis-backed stores are replaced by their in-memory versions and the
// third-party APIs by fakes.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

// NewTestServerWithConfig is NewTestServer with a caller-supplied configuration,
// e.g. a production environment for Secure cookies.
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	log := logging.Discard()

	repos := repoPostgres.NewRepositories(testDB.DB)
	store := NewFakeObjectStore()
	qa := NewFakeDocumentQA()
	issuer := &FakeRTCIssuer{}

	services := service.NewServices(repos, cfg, service.Deps{
		Revoked:  revocation.NewMemoryStore(),
		Registry: presence.NewMemoryRegistry(cfg.ChannelTTL),
		Store:    store,
		QA:       qa,
		Issuer:   issuer,
		Logger:   log,
	})
	router := api.NewRouter(services, cfg, log, prometheus.NewRegistry())

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Config:   cfg,
		Store:    store,
		QA:       qa,
		Issuer:   issuer,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the ws:// URL for a given path
func (ts *TestServer) WebSocketURL(path string) string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + path
}

// NewClient returns a client with its own cookie jar that does not follow redirects.
func (ts *TestServer) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
