package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"subtrack/internal/agent"
	"subtrack/internal/api"
	"subtrack/internal/db"
	"subtrack/internal/domain"
	"subtrack/internal/middleware"
	"subtrack/internal/store"
	"subtrack/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

// testServer bundles the router and its backing stores for one test
type testServer struct {
	db     *gorm.DB
	ledger *store.LedgerStore
	subs   *store.SubscriptionStore
	router *gin.Engine
}

// newTestServer wires the full route surface over a throwaway SQLite
// database. Redis is absent in tests, handlers skip caching.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))

	ledger := store.NewLedgerStore(gdb)
	subs := store.NewSubscriptionStore(gdb)
	groups := store.NewGroupStore(gdb)
	evaluator := agent.NewEvaluator(ledger, subs)

	r := gin.New()
	r.POST("/api/register", api.RegisterHandler(gdb, ledger))
	r.POST("/api/login", api.LoginHandler(gdb, testSecret))
	r.POST("/api/logout", middleware.JWTAuthMiddleware(testSecret), api.LogoutHandler())
	r.GET("/api/user", middleware.OptionalJWTMiddleware(testSecret), api.CurrentUserHandler(gdb))

	walletGroup := r.Group("/api/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(testSecret))
	walletGroup.GET("", api.GetWalletHandler(ledger, nil))
	walletGroup.POST("/deposit", api.DepositHandler(ledger, nil))
	walletGroup.POST("/withdraw", api.WithdrawHandler(ledger, nil))
	walletGroup.GET("/transactions", api.GetTransactionHistoryHandler(ledger, nil))

	subGroup := r.Group("/api/subscriptions")
	subGroup.Use(middleware.JWTAuthMiddleware(testSecret))
	subGroup.GET("", api.ListSubscriptionsHandler(subs))
	subGroup.POST("", api.CreateSubscriptionHandler(subs))
	subGroup.PUT("/:id", api.UpdateSubscriptionHandler(subs))
	subGroup.DELETE("/:id", api.DeleteSubscriptionHandler(subs))

	r.POST("/api/agent/run", middleware.JWTAuthMiddleware(testSecret), api.RunAgentHandler(evaluator, nil))

	groupRoutes := r.Group("/api/groups")
	groupRoutes.Use(middleware.JWTAuthMiddleware(testSecret))
	groupRoutes.GET("", api.ListGroupsHandler(groups))
	groupRoutes.POST("", api.CreateGroupHandler(gdb, groups))

	return &testServer{db: gdb, ledger: ledger, subs: subs, router: r}
}

// do performs a JSON request against the router and decodes the response body
func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// createUser inserts a user with a wallet directly and mints their token
func (s *testServer) createUser(t *testing.T, username string, balance float64) (uint, string) {
	t.Helper()
	user := domain.User{Username: username, Password: "irrelevant"}
	require.NoError(t, s.db.Create(&user).Error)
	_, err := s.ledger.CreateWallet(user.ID)
	require.NoError(t, err)
	if balance > 0 {
		_, err = s.ledger.Deposit(user.ID, balance)
		require.NoError(t, err)
	}
	token, err := utils.GenerateJWT(user.ID, username, testSecret)
	require.NoError(t, err)
	return user.ID, token
}

func TestRegisterCreatesUserAndWallet(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := resp["user"].(map[string]any)

	// The wallet is provisioned with the account
	wallet, err := s.ledger.GetWallet(uint(user["id"].(float64)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, wallet.Balance)

	// Duplicate usernames are rejected
	w, _ = s.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "alice", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	// Username must be alphanumeric starting with a letter
	w, _ := s.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "1bad!", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Password must be long enough
	w, _ = s.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "bob", "password": "shrt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := s.do(t, http.MethodPost, "/api/login", "", gin.H{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp["token"])

	// Wrong password is unauthorized
	w, _ = s.do(t, http.MethodPost, "/api/login", "", gin.H{"username": "alice", "password": "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUserNullWhenAnonymous(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/user", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	_, token := s.createUser(t, "alice", 0)
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestWalletEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/wallet"},
		{http.MethodPost, "/api/wallet/deposit"},
		{http.MethodPost, "/api/wallet/withdraw"},
		{http.MethodGet, "/api/wallet/transactions"},
		{http.MethodPost, "/api/agent/run"},
		{http.MethodGet, "/api/subscriptions"},
	} {
		w, _ := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestDepositAndWithdrawFlow(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "alice", 0)

	// Deposit 100
	w, resp := s.do(t, http.MethodPost, "/api/wallet/deposit", token, gin.H{"amount": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	wallet := resp["wallet"].(map[string]any)
	assert.Equal(t, 100.0, wallet["balance"])

	// Overdrawing fails and changes nothing
	w, _ = s.do(t, http.MethodPost, "/api/wallet/withdraw", token, gin.H{"amount": 150})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A covered withdrawal succeeds
	w, resp = s.do(t, http.MethodPost, "/api/wallet/withdraw", token, gin.H{"amount": 40})
	require.Equal(t, http.StatusOK, w.Code)
	wallet = resp["wallet"].(map[string]any)
	assert.Equal(t, 60.0, wallet["balance"])

	// History lists both entries, newest first
	w, resp = s.do(t, http.MethodGet, "/api/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := resp["transactions"].([]any)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TxWithdrawal, txs[0].(map[string]any)["type"])
	assert.Equal(t, domain.TxDeposit, txs[1].(map[string]any)["type"])
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "alice", 0)

	for _, amount := range []float64{0, -5} {
		w, _ := s.do(t, http.MethodPost, "/api/wallet/deposit", token, gin.H{"amount": amount})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

// subscriptionBody builds a valid create payload
func subscriptionBody(name string, price float64, autoCancel bool, usageCount int) gin.H {
	now := time.Now()
	return gin.H{
		"name":              name,
		"price":             price,
		"billing_cycle":     "monthly",
		"start_date":        now.AddDate(0, -3, 0).Format(time.RFC3339),
		"next_billing_date": now.AddDate(0, 1, 0).Format(time.RFC3339),
		"category":          "Entertainment",
		"auto_cancel":       autoCancel,
		"usage_count":       usageCount,
	}
}

func TestSubscriptionCrudFlow(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "alice", 0)

	// Create
	w, resp := s.do(t, http.MethodPost, "/api/subscriptions", token, subscriptionBody("Netflix", 499, false, 15))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(resp["id"].(float64))
	assert.Equal(t, "active", resp["status"])

	// List
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// Partial update
	w, resp = s.do(t, http.MethodPut, "/api/subscriptions/"+itoa(id), token, gin.H{"price": 599})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 599.0, resp["price"])
	assert.Equal(t, "Netflix", resp["name"])

	// Delete, twice: the second is a no-op, not an error
	w, _ = s.do(t, http.MethodDelete, "/api/subscriptions/"+itoa(id), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/subscriptions/"+itoa(id), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptionOwnershipEnforced(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "alice", 0)
	_, bobToken := s.createUser(t, "bob", 0)

	w, resp := s.do(t, http.MethodPost, "/api/subscriptions", aliceToken, subscriptionBody("Netflix", 499, false, 15))
	require.Equal(t, http.StatusCreated, w.Code)
	id := int(resp["id"].(float64))

	// Another user cannot see, update, or delete it
	w, _ = s.do(t, http.MethodPut, "/api/subscriptions/"+itoa(id), bobToken, gin.H{"price": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/subscriptions/"+itoa(id), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentRunEndpoint(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.createUser(t, "alice", 100)

	one := 1
	now := time.Now()
	sub := domain.Subscription{
		UserID:          userID,
		Name:            "Adobe Creative Cloud",
		Price:           1675,
		BillingCycle:    domain.CycleMonthly,
		StartDate:       now.AddDate(0, -6, 0),
		NextBillingDate: now.AddDate(0, 1, 0),
		Status:          domain.StatusActive,
		Category:        "Productivity",
		AutoCancel:      true,
		UsageCount:      &one,
	}
	require.NoError(t, s.subs.Create(&sub))

	w, resp := s.do(t, http.MethodPost, "/api/agent/run", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1.0, resp["processed"])
	assert.Equal(t, 1.0, resp["cancelled"])
	logs := resp["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "Insufficient wallet balance")

	// The refund landed: 100 + 1675/2
	wallet, err := s.ledger.GetWallet(userID)
	require.NoError(t, err)
	assert.Equal(t, 937.5, wallet.Balance)
}

func TestAgentRunWithoutWallet(t *testing.T) {
	s := newTestServer(t)
	// A user created outside registration has no wallet
	user := domain.User{Username: "ghost", Password: "irrelevant"}
	require.NoError(t, s.db.Create(&user).Error)
	token, err := utils.GenerateJWT(user.ID, user.Username, testSecret)
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodPost, "/api/agent/run", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupCreateValidatesSplits(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "alice", 0)
	s.createUser(t, "bob", 0)

	// Splits short of 100 are rejected when the creator is listed
	w, _ := s.do(t, http.MethodPost, "/api/groups", aliceToken, gin.H{
		"name": "Roommates",
		"members": []gin.H{
			{"username": "alice", "split_percentage": 60},
			{"username": "bob", "split_percentage": 20},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A valid 50/50 split succeeds
	w, resp := s.do(t, http.MethodPost, "/api/groups", aliceToken, gin.H{
		"name": "Roommates",
		"members": []gin.H{
			{"username": "alice", "split_percentage": 50},
			{"username": "bob", "split_percentage": 50},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Roommates", resp["name"])

	// Unknown members are rejected
	w, _ = s.do(t, http.MethodPost, "/api/groups", aliceToken, gin.H{
		"name": "Strangers",
		"members": []gin.H{
			{"username": "nobody", "split_percentage": 100},
		},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// itoa is a tiny helper keeping route building readable
func itoa(v int) string {
	return strconv.Itoa(v)
}
