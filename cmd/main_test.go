package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/middlewares"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv clears env vars used by parseConfig
func resetEnv() {
	os.Clearenv()
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	assert.Equal(t, "config.env", parseFlags())
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	assert.Equal(t, "myconfig.env", parseFlags())
}

func TestPrintBuildInfo_Output(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2026-03-01"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	output := buf.String()
	assert.Contains(t, output, "Version: v1.0.0")
	assert.Contains(t, output, "Commit: abcd1234")
	assert.Contains(t, output, "Build: 2026-03-01")
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv()

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.AppHost)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.StorageDriver)

	assert.Equal(t, 5432, cfg.PGPort)
	assert.Equal(t, 16, cfg.PGMaxOpenConns)
	assert.Equal(t, 8, cfg.PGMaxIdleConns)

	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 30*time.Second, cfg.PriceCacheTTL)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ledger-transactions", cfg.KafkaTopic)

	assert.Equal(t, "50051", cfg.FeedPort)
	assert.Equal(t, "0.5", cfg.PriceSpread)

	assert.Equal(t, 24*time.Hour, cfg.JWTExp)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.OpTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.False(t, cfg.AuditFailures)
	assert.Equal(t, "IRR", cfg.BaseFiat)
	assert.Equal(t, "0.1", cfg.WithdrawFee)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestParseConfig_CustomEnv(t *testing.T) {
	resetEnv()
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KAFKA_TOPIC", "ledger")
	t.Setenv("JWT_EXP", "15m")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "250ms")
	t.Setenv("LEDGER_RETRY_ATTEMPTS", "5")
	t.Setenv("AUDIT_FAILED_ORDERS", "true")
	t.Setenv("BASE_FIAT", "USD")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.AppHost)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 5433, cfg.PGPort)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "ledger", cfg.KafkaTopic)
	assert.Equal(t, 15*time.Minute, cfg.JWTExp)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.True(t, cfg.AuditFailures)
	assert.Equal(t, "USD", cfg.BaseFiat)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POSTGRES_PORT", "not-a-number"},
		{"LEDGER_LOCK_TIMEOUT", "soon"},
		{"AUDIT_FAILED_ORDERS", "maybe"},
		{"STORAGE_DRIVER", "sqlite"},
		{"RATE_LIMIT_RPS", "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetEnv()
			t.Setenv(tt.key, tt.value)

			_, err := parseConfig("nonexistent.env")
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestParseConfig_FromFile(t *testing.T) {
	resetEnv()
	path := t.TempDir() + "/config.env"
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nBASE_FIAT=EUR\n"), 0o600))

	cfg, err := parseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.AppPort)
	assert.Equal(t, "EUR", cfg.BaseFiat)
}

type fixedFeed struct{ mid decimal.Decimal }

func (f fixedFeed) MidPrice(context.Context, string, string) (decimal.Decimal, error) {
	return f.mid, nil
}

type apiClient struct {
	t   *testing.T
	url string
}

func (c apiClient) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.url+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRouter_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := config{
		BaseFiat:      "IRR",
		OpTimeout:     5 * time.Second,
		RetryAttempts: 3,
		WithdrawFee:   "0.1",
		PriceSpread:   "0.5",
	}

	store := memory.New(memory.WithLockTimeout(time.Second))
	tokens := jwt.New(jwt.WithSecretKey("test-secret"), jwt.WithExpiration(time.Hour))
	a, err := newApp(store, tokens, serviceOptions(cfg))
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(a, tokens, middlewares.NewRateLimiter(100, 100),
		fixedFeed{mid: decimal.NewFromInt(4320000000)}))
	defer srv.Close()
	api := apiClient{t: t, url: srv.URL + "/api/v1"}

	admin := &models.User{
		UserID:       uuid.New(),
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "x",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateUser(ctx, admin)
	}))
	adminToken, err := tokens.Generate(ctx, admin.UserID, models.RoleAdmin)
	require.NoError(t, err)

	// Register and log in
	status := api.do(http.MethodPost, "/register", "", models.RegisterRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login models.LoginResponse
	status = api.do(http.MethodPost, "/login", "", models.LoginRequest{Username: "alice", Password: "secret123"}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/wallet/balance", "", nil, nil))

	// Only admins manage currencies
	btc := map[string]any{
		"symbol": "BTC", "name": "Bitcoin",
		"buy_price": "4350000000", "sell_price": "4300000000",
		"buy_commission": "0.5", "sell_commission": "0.5",
		"treasury_balance": "10", "decimal_places": 8,
		"is_active": true, "is_tradeable": true,
	}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/admin/currencies", login.Token, btc, nil))
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/admin/currencies", adminToken, btc, nil))

	var prices models.PricesResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/prices", "", nil, &prices))
	require.Len(t, prices.Prices, 1)
	assert.Equal(t, "BTC", prices.Prices[0].Symbol)

	// Fund alice with base fiat
	alice, err := store.GetUserByLogin(ctx, "alice", "")
	require.NoError(t, err)
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		u, err := tx.GetUserForUpdate(ctx, alice.UserID)
		if err != nil {
			return err
		}
		u.FiatBalance = money.FromInt(100000000)
		return tx.UpdateUser(ctx, u)
	}))

	// Buy 0.01 BTC
	var order models.Order
	status = api.do(http.MethodPost, "/orders/buy", login.Token, map[string]any{"currency": "BTC", "amount": "0.01"}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderCompleted, order.Status)
	assert.Equal(t, "43717500.00000000", order.FinalAmount.String())
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))

	var balances models.WalletsResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/wallet/balance", login.Token, nil, &balances))
	assert.Equal(t, "56282500.00000000", balances.FiatBalance.String())
	require.Len(t, balances.Wallets, 1)
	assert.Equal(t, "0.01000000", balances.Wallets[0].Balance.String())

	var got models.Order
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/orders/"+order.OrderNumber, login.Token, nil, &got))
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	var orders models.OrdersResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/orders?type=buy", login.Token, nil, &orders))
	assert.Len(t, orders.Orders, 1)

	// Selling more than held is rejected and leaves balances untouched
	assert.Equal(t, http.StatusUnprocessableEntity,
		api.do(http.MethodPost, "/orders/sell", login.Token, map[string]any{"currency": "BTC", "amount": "1"}, nil))

	// Amounts beyond eight decimal places are rejected at decoding
	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodPost, "/orders/buy", login.Token, map[string]any{"currency": "BTC", "amount": "0.000000001"}, nil))

	// Admins see every user's orders and can suspend an account
	var all models.OrdersResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/admin/orders", adminToken, nil, &all))
	assert.Len(t, all.Orders, 1)

	statusPath := "/admin/users/" + alice.UserID.String() + "/status"
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, statusPath, adminToken, map[string]any{"is_active": false}, nil))
	assert.Equal(t, http.StatusConflict,
		api.do(http.MethodPost, "/orders/buy", login.Token, map[string]any{"currency": "BTC", "amount": "0.01"}, nil))
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, statusPath, adminToken, map[string]any{"is_active": true}, nil))

	// Admin price sync applies the spread around the feed's mid price
	var synced struct {
		Updated int `json:"updated"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/admin/prices/sync", adminToken, nil, &synced))
	assert.Equal(t, 1, synced.Updated)

	current, err := store.GetCurrency(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "4341600000.00000000", current.BuyPrice.String())
	assert.Equal(t, "4298400000.00000000", current.SellPrice.String())
}

func TestRun_MemoryStorage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cfg := config{
		AppHost:        "127.0.0.1",
		AppPort:        "0",
		LogLevel:       "error",
		StorageDriver:  "memory",
		FeedHost:       "127.0.0.1",
		FeedPort:       "50051",
		PriceSpread:    "0.5",
		JWTSecret:      "secret",
		JWTExp:         time.Hour,
		LockTimeout:    time.Second,
		OpTimeout:      time.Second,
		RetryAttempts:  1,
		RateLimitRPS:   10,
		RateLimitBurst: 10,
		BaseFiat:       "IRR",
		WithdrawFee:    "0.1",
	}

	assert.NoError(t, run(ctx, cfg))
}
