package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/models"
	"github.com/atinyakov/cerevyn/internal/repository"
	handler "github.com/atinyakov/cerevyn/internal/server/handler/http"
	"github.com/atinyakov/cerevyn/internal/service"
	"github.com/atinyakov/cerevyn/internal/validation"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	v := validation.New()

	tokens, err := service.NewTokenService("router-test-secret", time.Hour)
	require.NoError(t, err)
	auth := service.NewAuthService(store, tokens, v)
	inventory := service.NewInventoryService(store, v)

	router := handler.NewRouter(
		&handler.AuthHandler{AuthService: auth, Log: log},
		&handler.InventoryHandler{InventoryService: inventory, Log: log},
		&handler.HealthHandler{Store: store, Log: log},
		auth,
		log,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv}
}

// do sends a JSON request and decodes a JSON response body into a generic map.
func (a *testAPI) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (a *testAPI) register(email string) (token, userID string) {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"fullName": "Farmer " + email,
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(a.t, http.StatusCreated, code, "register %s: %v", email, body)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func (a *testAPI) createItem(token string, item map[string]any) map[string]any {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/inventory", token, item)
	require.Equal(a.t, http.StatusCreated, code, "create: %v", body)
	return body["data"].(map[string]any)["item"].(map[string]any)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"fullName": "Ada Okafor",
		"email":    "Ada@Farm.test",
		"password": "correct-horse",
		"farmName": "Green Acres",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["token"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "ada@farm.test", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")

	code, body = api.do(http.MethodPost, "/api/v1/identity/register", "", map[string]any{
		"fullName": "Someone Else",
		"email":    "ada@farm.test",
		"password": "another-pass",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", body["status"])

	code, body = api.do(http.MethodPost, "/api/v1/identity/login", "", map[string]any{
		"email": "ada@farm.test", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])

	codeWrong, bodyWrong := api.do(http.MethodPost, "/api/v1/identity/login", "", map[string]any{
		"email": "ada@farm.test", "password": "wrong-horse",
	})
	codeUnknown, bodyUnknown := api.do(http.MethodPost, "/api/v1/identity/login", "", map[string]any{
		"email": "nobody@farm.test", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, codeWrong)
	assert.Equal(t, codeWrong, codeUnknown)
	assert.Equal(t, bodyWrong, bodyUnknown)

	code, _ = api.do(http.MethodPost, "/api/v1/identity/login", "", map[string]any{"email": "ada@farm.test"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_AuthGate(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("gate@farm.test")

	code, body := api.do(http.MethodGet, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "not logged in", body["message"])

	code, body = api.do(http.MethodGet, "/api/v1/inventory", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid token", body["message"])

	code, _ = api.do(http.MethodGet, "/api/v1/inventory", token, nil)
	assert.Equal(t, http.StatusOK, code)

	// Same signing secret, but a store that has never seen the user.
	fresh := newTestAPI(t)
	code, body = fresh.do(http.MethodGet, "/api/v1/inventory", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "user no longer exists", body["message"])
}

func TestAPI_OwnershipScoping(t *testing.T) {
	api := newTestAPI(t)
	tokenA, idA := api.register("a@farm.test")
	tokenB, idB := api.register("b@farm.test")

	maize := api.createItem(tokenA, map[string]any{
		"name": "Maize", "category": "Grains", "quantity": 2, "unit": "tons",
		"plantedDate": "2024-03-01", "ownerId": idB,
	})
	beans := api.createItem(tokenA, map[string]any{
		"name": "Beans", "quantity": 50, "plantedDate": "2024-03-02T00:00:00Z",
	})
	assert.Equal(t, idA, maize["ownerId"], "owner must come from the token, not the body")
	assert.Equal(t, "Others", beans["category"])
	assert.Equal(t, "kg", beans["unit"])
	assert.Equal(t, "growing", beans["status"])

	code, body := api.do(http.MethodGet, "/api/v1/inventory", tokenA, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["results"])
	assert.Equal(t, map[string]any{"totalCrops": 2.0, "totalQuantity": 2050.0}, body["summary"])
	items := body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, beans["id"], items[0].(map[string]any)["id"], "newest first")

	code, body = api.do(http.MethodGet, "/api/v1/inventory", tokenB, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["results"])
	assert.Equal(t, map[string]any{"totalCrops": 0.0, "totalQuantity": 0.0}, body["summary"])
	assert.Empty(t, body["data"].(map[string]any)["items"])

	maizePath := "/api/v1/inventory/" + maize["id"].(string)

	code, _ = api.do(http.MethodPatch, maizePath, tokenB, map[string]any{"status": "sold"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = api.do(http.MethodDelete, maizePath, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = api.do(http.MethodPatch, maizePath, tokenA, map[string]any{"status": "harvested", "harvestDate": "2024-08-01"})
	require.Equal(t, http.StatusOK, code)
	patched := body["data"].(map[string]any)["item"].(map[string]any)
	assert.Equal(t, "harvested", patched["status"])
	assert.Equal(t, "Maize", patched["name"])
	assert.Equal(t, "2024-08-01T00:00:00Z", patched["harvestDate"])

	code, body = api.do(http.MethodPatch, maizePath, tokenA, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, code)
	patched = body["data"].(map[string]any)["item"].(map[string]any)
	assert.Equal(t, "2024-08-01T00:00:00Z", patched["harvestDate"], "absent harvestDate is kept")

	code, body = api.do(http.MethodPatch, maizePath, tokenA, map[string]any{"harvestDate": nil})
	require.Equal(t, http.StatusOK, code)
	patched = body["data"].(map[string]any)["item"].(map[string]any)
	assert.NotContains(t, patched, "harvestDate", "null harvestDate clears it")

	code, body = api.do(http.MethodPatch, maizePath, tokenA, map[string]any{"unit": "bushels"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["errors"])

	code, _ = api.do(http.MethodDelete, maizePath, tokenA, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = api.do(http.MethodDelete, maizePath, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodDelete, "/api/v1/inventory/not-a-uuid", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("v@farm.test")

	code, body := api.do(http.MethodPost, "/api/v1/inventory", token, map[string]any{
		"name": "Maize", "quantity": -1, "unit": "bushels",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", body["status"])

	fields := map[string]bool{}
	for _, e := range body["errors"].([]any) {
		fields[e.(map[string]any)["field"].(string)] = true
	}
	assert.True(t, fields["quantity"])
	assert.True(t, fields["unit"])
	assert.True(t, fields["plantedDate"])
}

func TestAPI_BlankNamesRejected(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("blank@farm.test")

	code, body := api.do(http.MethodPost, "/api/v1/inventory", token, map[string]any{
		"name": "   ", "quantity": 1, "plantedDate": "2024-03-01",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", body["status"])

	item := api.createItem(token, map[string]any{
		"name": "  Cassava ", "quantity": 1, "plantedDate": "2024-03-01",
	})
	assert.Equal(t, "Cassava", item["name"])

	path := "/api/v1/inventory/" + item["id"].(string)
	code, body = api.do(http.MethodPatch, path, token, map[string]any{"name": " \t "})
	require.Equal(t, http.StatusBadRequest, code)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].(map[string]any)["field"])

	code, body = api.do(http.MethodGet, "/api/v1/inventory", token, nil)
	require.Equal(t, http.StatusOK, code)
	items := body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Cassava", items[0].(map[string]any)["name"])
}

func TestAPI_RouteMissesAndHealth(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(http.MethodGet, "/api/v1/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "can't find /api/v1/unknown on this server", body["message"])

	code, body = api.do(http.MethodPut, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", body["status"])

	code, body = api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_NonJSONBodiesGetErrorEnvelope(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("ct@farm.test")

	tests := []struct {
		name, method, path, token, contentType, body string
	}{
		{"login without content type", http.MethodPost, "/api/v1/identity/login", "", "", `{"email":"ct@farm.test","password":"correct-horse"}`},
		{"login as text", http.MethodPost, "/api/v1/identity/login", "", "text/plain", `{"email":"ct@farm.test","password":"correct-horse"}`},
		{"register as form", http.MethodPost, "/api/v1/identity/register", "", "application/x-www-form-urlencoded", "email=x"},
		{"create as text", http.MethodPost, "/api/v1/inventory", token, "text/plain", `{"name":"Maize","quantity":1,"plantedDate":"2024-03-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, api.server.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "fail", body["status"])
			assert.Equal(t, "Content-Type must be application/json", body["message"])
		})
	}

	code, body := api.do(http.MethodGet, "/api/v1/inventory", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["results"], "rejected create must not store anything")
}

type panickingAuth struct{}

func (panickingAuth) Register(context.Context, service.RegisterInput) (*service.AuthResult, error) {
	panic("register exploded")
}

func (panickingAuth) Login(context.Context, service.LoginInput) (*service.AuthResult, error) {
	panic("login exploded")
}

type panickingGate struct{}

func (panickingGate) Authenticate(context.Context, string) (models.User, error) {
	panic("gate exploded")
}

func TestAPI_PanicsGetErrorEnvelope(t *testing.T) {
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	router := handler.NewRouter(
		&handler.AuthHandler{AuthService: panickingAuth{}, Log: log},
		&handler.InventoryHandler{InventoryService: service.NewInventoryService(store, validation.New()), Log: log},
		&handler.HealthHandler{Store: store, Log: log},
		panickingGate{},
		log,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	for _, tc := range []struct{ method, path, auth string }{
		{http.MethodPost, "/api/v1/identity/login", ""},
		{http.MethodGet, "/api/v1/inventory", "Bearer some-token"},
	} {
		req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(`{"email":"a@b.c","password":"pw"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, tc.path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"), tc.path)
		assert.JSONEq(t, `{"status":"error","message":"something went wrong"}`, string(raw), tc.path)
	}
}
