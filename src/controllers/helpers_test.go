package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talentnest-connections/src/connections"
	"github.com/theleywin/talentnest-connections/src/controllers"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/routes"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	store connections.Store
}

type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, func(*gorm.DB) (connections.Store, error) {
		return connections.NewMemoryStore(), nil
	})
}

// newGormTestServer keeps connection requests in the same SQLite database as the members
func newGormTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, func(db *gorm.DB) (connections.Store, error) {
		return connections.NewGormStore(db)
	})
}

func newTestServerWithStore(t *testing.T, openStore func(*gorm.DB) (connections.Store, error)) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := lib.ConnectDB(fmt.Sprintf("file:ctl_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, lib.AutoMigrate(db))

	store, err := openStore(db)
	require.NoError(t, err)
	tick := &clock{cur: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager, err := connections.NewManager(store, connections.WithClock(tick.Now))
	require.NoError(t, err)
	resolver, err := connections.NewResolver(store)
	require.NoError(t, err)
	members, err := identity.NewGormDirectory(db)
	require.NoError(t, err)

	notifications := &controllers.NotificationController{DB: db, Members: members}
	protect := middleware.ProtectRoute(members, testSecret)

	app := fiber.New()
	routes.AuthRoutes(app, &controllers.AuthController{DB: db, Secret: testSecret, TTL: time.Hour}, protect)
	routes.UserRoutes(app, &controllers.UserController{Members: members, Resolver: resolver}, protect)
	routes.NotificationRoutes(app, notifications, protect)
	routes.ConnectionRoutes(app, &controllers.ConnectionController{
		Manager:  manager,
		Resolver: resolver,
		Members:  members,
		Notifier: notifications,
	}, protect)

	return &testServer{app: app, db: db, store: store}
}

// count returns how many records the store holds for member
func (s *testServer) count(t *testing.T, member string) int {
	t.Helper()
	n := 0
	for _, err := range s.store.FindByParticipant(context.Background(), member) {
		require.NoError(t, err)
		n++
	}
	return n
}

// seed creates members with the given ids, using the id as username, and returns a token per id
func (s *testServer) seed(t *testing.T, ids ...string) map[string]string {
	t.Helper()
	tokens := make(map[string]string, len(ids))
	for _, id := range ids {
		user := models.User{
			ID:       id,
			Name:     strings.ToUpper(id),
			Username: id,
			Email:    id + "@example.com",
			Password: "unused",
		}
		require.NoError(t, s.db.Create(&user).Error)

		token, err := lib.GenerateJWT(id, testSecret, time.Hour)
		require.NoError(t, err)
		tokens[id] = token
	}
	return tokens
}

// do sends a request and decodes the JSON response into out when out is non-nil
func (s *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type connectionEnvelope struct {
	Message    string                   `json:"message"`
	Connection models.ConnectionRequest `json:"connection"`
}

type listedConnection struct {
	ID     string                  `json:"_id"`
	User   models.UserDto          `json:"user"`
	Side   models.Side             `json:"side"`
	Status models.ConnectionStatus `json:"status"`
}

func listedUsers(items []listedConnection) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.User.ID)
	}
	return out
}
