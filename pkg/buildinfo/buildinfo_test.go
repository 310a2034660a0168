package buildinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/audiencia-cli/pkg/buildinfo"
)

func TestGet(t *testing.T) {
	info := buildinfo.Get("audiencia")

	assert.Equal(t, "audiencia", info.ServiceName)
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, buildinfo.Commit, info.Commit)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
	assert.Contains(t, info.Platform, "/")
}

func TestString(t *testing.T) {
	oldV, oldC, oldT := buildinfo.Version, buildinfo.Commit, buildinfo.BuildTime
	defer func() { buildinfo.Version, buildinfo.Commit, buildinfo.BuildTime = oldV, oldC, oldT }()

	buildinfo.Version = "v0.3.0"
	buildinfo.Commit = "1f2e3d4"
	buildinfo.BuildTime = "2026-10-01T09:00:00Z"

	assert.Equal(t, "v0.3.0 (1f2e3d4, 2026-10-01T09:00:00Z)", buildinfo.String())
	assert.Equal(t, "v0.3.0", buildinfo.Get("x").Version)
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	buildinfo.Handler("audiencia-serve")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var info buildinfo.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "audiencia-serve", info.ServiceName)
	assert.NotEmpty(t, info.BuildTime)
}
