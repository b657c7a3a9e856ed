package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/webapi/testutils"
	"github.com/stretchr/testify/assert"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8080", listenAddr(&config.Server{Host: "0.0.0.0", Port: 8080}))
}

func TestServer_RootRoute(t *testing.T) {
	env := testutils.NewEnv(t)
	resp := env.MakeRequest(t, http.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_NotFoundRoute(t *testing.T) {
	env := testutils.NewEnv(t)
	resp := env.MakeRequest(t, http.MethodGet, "/doesnotexist", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}
