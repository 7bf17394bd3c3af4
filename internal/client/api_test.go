package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/cerevyn/internal/models"
)

func TestClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiLogin, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ada@farm.test", creds.Email)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","token":"tok-1","data":{"user":{"id":"u-1","email":"ada@farm.test"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	res, err := c.Login(context.Background(), Credentials{Email: "ada@farm.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.Token)
	assert.Equal(t, "u-1", res.Data.User.ID)
}

func TestClient_SendsBearerAndDecodesInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{
			"status":"success","results":1,
			"summary":{"totalCrops":1,"totalQuantity":2000},
			"data":{"items":[{"id":"i1","name":"Maize","quantity":2,"unit":"tons","plantedDate":"2024-03-01T00:00:00Z"}]}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Token = "tok-1"
	inv, err := c.ListItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Results)
	assert.Equal(t, 2000.0, inv.Summary.TotalQuantity)
	require.Len(t, inv.Data.Items, 1)
	assert.Equal(t, models.UnitTons, inv.Data.Items[0].Unit)
	assert.True(t, inv.Data.Items[0].PlantedDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestClient_ItemMutations(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":"success","data":{"item":{"id":"new","name":"Beans"}}}`))
		default:
			_, _ = w.Write([]byte(`{"status":"success","data":{"item":{"id":"i1","status":"sold"}}}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	q := 5.0
	created, err := c.CreateItem(ctx, models.ItemInput{Name: "Beans", Quantity: &q})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Beans", gotBody["name"])

	sold := models.StatusSold
	updated, err := c.UpdateItem(ctx, "i1", models.ItemPatch{Status: &sold})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, updated.Status)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, apiInventory+"/i1", gotPath)
	assert.Equal(t, "sold", gotBody["status"])
	assert.Nil(t, gotBody["name"])
	assert.NotContains(t, gotBody, "harvestDate", "untouched harvest date must not be sent")

	require.NoError(t, c.DeleteItem(ctx, "i1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiInventory:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"fail","message":"validation failed","errors":[{"field":"unit","message":"unit must be one of [kg tons quintals units]"}]}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"fail","message":"invalid token"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateItem(context.Background(), models.ItemInput{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Fields, 1)
	assert.Contains(t, apiErr.Error(), "unit must be one of")

	err = c.DeleteItem(context.Background(), "x")
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, "invalid token", apiErr.Message)
}

func TestNewWithCA_BadFile(t *testing.T) {
	_, err := NewWithCA("https://localhost", "/definitely/missing/ca.crt")
	assert.Error(t, err)
}
