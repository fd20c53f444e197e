package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/database"
	"talent-match/internal/database/migration"
	dbpostgres "talent-match/internal/database/postgres"
	"talent-match/internal/database/seeder"
	"talent-match/internal/delivery/http/handler"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/delivery/http/routes"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/shortlist"
	"talent-match/internal/infrastructure/cache"
	"talent-match/internal/notify"
	"talent-match/internal/pkg/jwt"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"
	"talent-match/migrations"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const testSecret = "integration-secret"

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func TestIntegration_GenerateHireRegenerate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()
	log := zaptest.NewLogger(t)

	_, err := migration.Runner{FS: migrations.FS, Logger: log}.Run(ctx, db.SQLDB())
	require.NoError(t, err, "run migrations")
	require.NoError(t, seeder.Runner{Seeders: seeder.Defaults(), Logger: log}.Run(ctx, db), "seed")

	jobID := backendJobID(t, ctx, db)
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM shortlists WHERE job_id = $1`, jobID)
	})
	_, err = db.Exec(ctx, `DELETE FROM shortlists WHERE job_id = $1`, jobID)
	require.NoError(t, err)

	app := newTestApp(t, db, log)
	token := issueToken(t)

	generated := decodeShortlist(t, call(t, app, token, "POST", "/api/v1/matching/generate", map[string]any{"jobId": jobID}))
	require.NotEmpty(t, generated.Entries)
	for i := 1; i < len(generated.Entries); i++ {
		assert.GreaterOrEqual(t, generated.Entries[i-1].OverallScore, generated.Entries[i].OverallScore)
	}
	top := generated.Entries[0]
	assert.Equal(t, shortlist.StatusShortlisted, top.Status)

	notes := "offer accepted"
	resp := call(t, app, token, "POST", "/api/v1/matching/hire", map[string]any{
		"jobId": jobID, "candidateId": top.CandidateID, "notes": notes,
	})
	var hired shortlist.Entry
	require.NoError(t, json.Unmarshal(resp.Data, &hired))
	assert.Equal(t, shortlist.StatusHired, hired.Status)
	assert.Equal(t, notes, hired.Notes)

	regenerated := decodeShortlist(t, call(t, app, token, "POST", "/api/v1/matching/generate", map[string]any{"jobId": jobID}))
	got, ok := regenerated.Find(top.CandidateID)
	require.True(t, ok, "hired candidate should stay on the shortlist")
	assert.Equal(t, shortlist.StatusHired, got.Status)
	assert.Equal(t, notes, got.Notes)

	fetched := decodeShortlist(t, call(t, app, token, "GET", "/api/v1/matching/shortlist/"+jobID.String(), nil))
	assert.Len(t, fetched.Entries, len(regenerated.Entries))
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("TALENTMATCH_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set TALENTMATCH_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func backendJobID(t *testing.T, ctx context.Context, db database.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM jobs WHERE title = $1 AND status = 'open' ORDER BY created_at LIMIT 1`,
		"Backend Engineer (Go)").Scan(&id)
	require.NoError(t, err, "seeded backend job")
	return id
}

func newTestApp(t *testing.T, db database.DB, log *zap.Logger) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := matching.NewEngine(matching.DefaultWeights())
	require.NoError(t, err)

	uc := usecase.NewMatchingUsecase(usecase.MatchingDeps{
		Jobs:       repository.NewPostgresJobRepository(db),
		Candidates: repository.NewPostgresCandidateRepository(db),
		Shortlists: repository.NewPostgresShortlistRepository(db),
		Engine:     engine,
		Manager:    shortlist.NewManager(50, nil),
		Cache:      cache.NewRedisFromClient(client, time.Minute, log),
		Publisher:  notify.NewRedisPublisher(client, "matching.events"),
		Logger:     log,
	})

	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
	(&routes.Registry{
		Matching: handler.NewMatchingHandler(uc),
		Auth:     middleware.NewAuthMiddleware(jwt.NewHMACService(testSecret)),
	}).Register(app)
	return app
}

func issueToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewHMACService(testSecret).IssueToken(uuid.New(), time.Hour)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, app *fiber.App, token, method, path string, body any) semanticResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := app.Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	var out semanticResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equalf(t, fiber.StatusOK, res.StatusCode, "%s %s: %s", method, path, out.Message)
	return out
}

func decodeShortlist(t *testing.T, resp semanticResponse) shortlist.Shortlist {
	t.Helper()
	var sl shortlist.Shortlist
	require.NoError(t, json.Unmarshal(resp.Data, &sl))
	return sl
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
