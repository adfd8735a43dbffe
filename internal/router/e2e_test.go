//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sushmag0wda/Aims-Inventory/internal/config"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"
	"github.com/sushmag0wda/Aims-Inventory/internal/router"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func itemByCode(t *testing.T, srv *httptest.Server, token, code string) dto.ItemResponse {
	t.Helper()
	var items []dto.ItemResponse
	decodeJSON(t, do(t, srv, http.MethodGet, "/v1/items", nil, token), &items)
	for _, it := range items {
		if it.ItemCode == code {
			return it
		}
	}
	t.Fatalf("item %s not found", code)
	return dto.ItemResponse{}
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.LoginResponse
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	admin  string // admin JWT
	clerk  string // stationery JWT
}

func seedUser(t *testing.T, users repository.UserRepository, username, password string, role model.Role) {
	t.Helper()
	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Username:       username,
		PasswordHash:   hash,
		Role:           role,
		ApprovalStatus: model.ApprovalApproved,
		IsSuperuser:    role == model.RoleAdmin,
	}))
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("stationery_test"),
		tcPostgres.WithUsername("stationery"),
		tcPostgres.WithPassword("stationery"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                 8000,
		Env:                  "test",
		JWTSecret:            "test-secret-key",
		JWTExpirationHours:   8,
		JWTRefreshHours:      24,
		SuperAdminUsername:   "admin",
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		WorkerPoolSize:       1,
		CORSAllowedOrigins:   "*",
		RateLimitPerMinute:   1000,
		PhoneRegion:          "IN",
		ImportLockTTLSeconds: 30,
		LockRetryAttempts:    3,
		LockRetryDelayMS:     50,
		LockTimeoutMS:        200,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	seedUser(t, users, "admin", "Admin@123", model.RoleAdmin)
	seedUser(t, users, "user", "User@123", model.RoleStationery)
	_, _, err = service.EnsureLegacyItems(ctx, repository.NewItemRepository(db))
	require.NoError(t, err)

	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	srv := httptest.NewServer(router.New(cfg, db, rdb, smtpCB))
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		db:     db,
		admin:  login(t, srv, "admin", "Admin@123"),
		clerk:  login(t, srv, "user", "User@123"),
	}
}

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := setupTestEnv(t)
	srv := env.server

	t.Run("health", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("swagger ui outside production", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/swagger/index.html", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/v1/students", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	var dept dto.DepartmentResponse
	t.Run("create department", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/v1/departments", jsonBody(t, map[string]any{
			"course_code":          "CSE",
			"course":               "Computer Science",
			"academic_year":        "2023-25",
			"year":                 "01",
			"two_hundred_notebook": 2,
			"one_hundred_record":   1,
		}), env.admin)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decodeJSON(t, resp, &dept)
		assert.Equal(t, "2023-2025", dept.AcademicYear)
		assert.Equal(t, "1", dept.Year)
	})

	t.Run("create student", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/v1/students", jsonBody(t, map[string]any{
			"usn":           "1ab23cs001",
			"name":          "Asha",
			"department_id": dept.ID,
			"phone":         "98765 43210",
		}), env.clerk)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var st dto.StudentResponse
		decodeJSON(t, resp, &st)
		assert.Equal(t, "1AB23CS001", st.USN)
		assert.Equal(t, "+919876543210", st.Phone)
	})

	t.Run("stock and issue", func(t *testing.T) {
		item := itemByCode(t, srv, env.clerk, "2PN")

		resp := do(t, srv, http.MethodPut, "/v1/items/"+item.ID, jsonBody(t, map[string]any{
			"item_code": item.ItemCode, "name": item.Name, "quantity": 5,
		}), env.clerk)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		// Over-issuing fails and leaves stock untouched.
		resp = do(t, srv, http.MethodPost, "/v1/issues", jsonBody(t, map[string]any{
			"student_usn": "1AB23CS001",
			"issues":      []map[string]any{{"item_code": "2PN", "quantity": 9}},
		}), env.clerk)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		resp = do(t, srv, http.MethodPost, "/v1/issues", jsonBody(t, map[string]any{
			"student_usn": "1AB23CS001",
			"issues":      []map[string]any{{"item_code": "2pn", "quantity": 1}},
		}), env.clerk)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var issued []dto.IssueRecordResponse
		decodeJSON(t, resp, &issued)
		require.Len(t, issued, 1)
		assert.Equal(t, "2023-2025", issued[0].AcademicYear)

		var got dto.ItemResponse
		decodeJSON(t, do(t, srv, http.MethodGet, "/v1/items/"+item.ID, nil, env.clerk), &got)
		assert.Equal(t, 4, got.Quantity)
	})

	t.Run("student records report what is still pending", func(t *testing.T) {
		var rec dto.StudentRecordsResponse
		decodeJSON(t, do(t, srv, http.MethodGet, "/v1/students/1ab23cs001/records", nil, env.clerk), &rec)
		assert.Len(t, rec.Issued, 1)
		assert.Equal(t, 1, rec.Pending["2PN"])
		assert.Equal(t, 1, rec.Pending["1PR"])
	})

	t.Run("admin-only maintenance", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/v1/maintenance/pending-reports", nil, env.clerk)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()

		resp = do(t, srv, http.MethodPost, "/v1/maintenance/pending-reports", nil, env.admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var gen dto.GeneratePendingResponse
		decodeJSON(t, resp, &gen)
		assert.Equal(t, 1, gen.CreatedCount)
	})

	t.Run("fifo ledger", func(t *testing.T) {
		itemID := itemByCode(t, srv, env.clerk, "1PR").ID

		for _, qty := range []int{3, 4} {
			resp := do(t, srv, http.MethodPost, "/v1/inventory/receipts", jsonBody(t, map[string]any{
				"item_id": itemID, "quantity": qty, "unit_cost": "2.50",
			}), env.clerk)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}

		resp := do(t, srv, http.MethodPost, "/v1/inventory/receipts/consume",
			jsonBody(t, map[string]any{"item_id": itemID, "quantity": 10}), env.clerk)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()

		resp = do(t, srv, http.MethodPost, "/v1/inventory/receipts/consume",
			jsonBody(t, map[string]any{"item_id": itemID, "quantity": 5}), env.clerk)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var consumed dto.ConsumeResponse
		decodeJSON(t, resp, &consumed)
		assert.Equal(t, 5, consumed.Consumed)
		assert.Len(t, consumed.Allocations, 2)

		resp = do(t, srv, http.MethodPost, "/v1/inventory/receipts/restore",
			jsonBody(t, map[string]any{"item_id": itemID, "quantity": 8}), env.clerk)
		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		var restored dto.RestoreResponse
		decodeJSON(t, resp, &restored)
		assert.Equal(t, 5, restored.RestoredAmount)
		assert.True(t, restored.Partial)
	})

	t.Run("held receipt lock times out as 503", func(t *testing.T) {
		itemID := itemByCode(t, srv, env.clerk, "1PR").ID

		holder := env.db.Begin()
		require.NoError(t, holder.Error)
		var held []model.InventoryReceipt
		require.NoError(t, holder.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ?", itemID).Find(&held).Error)
		require.NotEmpty(t, held)

		resp := do(t, srv, http.MethodPost, "/v1/inventory/receipts/consume",
			jsonBody(t, map[string]any{"item_id": itemID, "quantity": 1}), env.clerk)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()

		require.NoError(t, holder.Rollback().Error)

		resp = do(t, srv, http.MethodPost, "/v1/inventory/receipts/consume",
			jsonBody(t, map[string]any{"item_id": itemID, "quantity": 1}), env.clerk)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("dashboard", func(t *testing.T) {
		var sum dto.DashboardSummary
		decodeJSON(t, do(t, srv, http.MethodGet, "/v1/dashboard/summary", nil, env.clerk), &sum)
		assert.EqualValues(t, 1, sum.TotalDepartments)
		assert.EqualValues(t, 1, sum.TotalStudents)
		assert.EqualValues(t, 1, sum.TotalIssued)
	})
}
