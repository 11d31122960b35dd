package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>huddle</h1>"), 0o644))

	cfg := &config.Config{
		Mode:       "test",
		StaticPath: static,
		Secret:     "test-secret",
		ICEServers: []config.ICEServer{
			{URLs: []string{"stun:stun.example.org:3478"}},
			{URLs: []string{"turn:turn.example.org:3478"}, Username: "u", Credential: "p"},
		},
	}
	o := orch.New(orch.Options{SeedGroups: []string{"test"}, DedupJoins: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, cfg, o), o
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListGroups(t *testing.T) {
	r, o := newRouter(t)
	o.Groups.Create("book-club", "A")

	w := get(t, r, "/api/groups")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Groups []struct {
			ID          string `json:"id"`
			MemberCount int    `json:"memberCount"`
			VoiceCount  int    `json:"voiceCount"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Groups, 2)
	assert.Equal(t, "book-club", body.Groups[0].ID)
	assert.Equal(t, 1, body.Groups[0].MemberCount)
	assert.Equal(t, "test", body.Groups[1].ID)
	assert.Zero(t, body.Groups[1].VoiceCount)
}

func TestGetGroup(t *testing.T) {
	r, _ := newRouter(t)

	w := get(t, r, "/api/groups/test")
	require.Equal(t, http.StatusOK, w.Code)
	var g map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "test", g["groupName"])
	assert.Equal(t, []any{}, g["members"])

	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/groups/missing").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/groups/missing/voice").Code)
}

func TestVoiceParticipants(t *testing.T) {
	r, _ := newRouter(t)

	w := get(t, r, "/api/groups/test/voice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"groupId":"test","participants":[]}`, w.Body.String())
}

func TestICEServers(t *testing.T) {
	r, _ := newRouter(t)

	w := get(t, r, "/api/ice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"iceServers":[
		{"urls":["stun:stun.example.org:3478"]},
		{"urls":["turn:turn.example.org:3478"],"username":"u","credential":"p"}
	]}`, w.Body.String())
}

func TestStatsAndSessionCookie(t *testing.T) {
	r, _ := newRouter(t)

	w := get(t, r, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connections":0,"identities":0,"groups":1}`, w.Body.String())

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionName {
			found = true
		}
	}
	assert.True(t, found, "session cookie set")
}

func TestIndexServed(t *testing.T) {
	r, _ := newRouter(t)

	w := get(t, r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "huddle")
}
