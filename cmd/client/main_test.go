package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/cerevyn/internal/client"
)

func newTestShell(t *testing.T, input string, h http.HandlerFunc) (*shell, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	api := client.New(srv.URL)
	api.Token = "tok"
	return &shell{api: api, prompt: client.NewPrompter(strings.NewReader(input), &out), out: &out}, &out
}

func TestShell_ListAndSummary(t *testing.T) {
	sh, out := newTestShell(t, "list\nsummary\nexit\n", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","results":1,
			"summary":{"totalCrops":1,"totalQuantity":2000},
			"data":{"items":[{"id":"i1","name":"Maize","category":"Grains","quantity":2,"unit":"tons",
			"status":"growing","plantedDate":"2024-03-01T00:00:00Z"}]}}`))
	})

	sh.run()

	assert.Contains(t, out.String(), "Maize")
	assert.Contains(t, out.String(), "2 tons")
	assert.Equal(t, 2, strings.Count(out.String(), "Total quantity: 2000"))
	assert.Contains(t, out.String(), "Bye")
}

func TestShell_AddUsesSamePrompter(t *testing.T) {
	var created bool
	sh, out := newTestShell(t, "add\nBeans\n\n50\n\n2024-03-02\n\n\nexit\n", func(w http.ResponseWriter, r *http.Request) {
		created = r.Method == http.MethodPost
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"success","data":{"item":{"id":"new-id"}}}`))
	})

	sh.run()

	assert.True(t, created)
	assert.Contains(t, out.String(), "Item new-id added")
	assert.Contains(t, out.String(), "Bye")
}

func TestShell_StopsOnUnauthorized(t *testing.T) {
	sh, out := newTestShell(t, "list\nlist\n", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"fail","message":"invalid token"}`))
	})

	sh.run()

	assert.Equal(t, 1, strings.Count(out.String(), "invalid token"))
	assert.Contains(t, out.String(), "-cmd login")
}

func TestShell_UsageAndUnknown(t *testing.T) {
	sh, out := newTestShell(t, "edit\ndelete\nfrobnicate\n", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	sh.run()

	assert.Contains(t, out.String(), "Usage: edit <id>")
	assert.Contains(t, out.String(), "Usage: delete <id>")
	assert.Contains(t, out.String(), "Unknown command")
}
