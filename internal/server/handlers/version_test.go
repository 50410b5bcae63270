package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	prev := GetVersionInfo()
	t.Cleanup(func() { SetVersionInfo(prev.Version, prev.Commit, prev.BuildDate) })

	SetVersionInfo("1.4.0", "abc1234", "2026-08-24")

	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var info VersionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, VersionInfo{Version: "1.4.0", Commit: "abc1234", BuildDate: "2026-08-24"}, info)
}
