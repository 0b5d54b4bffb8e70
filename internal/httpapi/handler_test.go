package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fystack/appprefs/internal/preferences"
	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/kvstore"
	"github.com/fystack/appprefs/pkg/schema"
	"github.com/fystack/appprefs/pkg/settings"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, cfg config.HTTPConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := kvstore.NewInMemoryBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	settingsStore, err := settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	h := NewHandler(store, preferences.New(nil), schema.NewGuard(settingsStore), preferences.NewMarkers(settingsStore))
	return NewRouter(h, cfg)
}

func do(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{})

	w := do(r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "badger", resp.Store)
}

func TestPreferencesRoundTrip(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{})

	w := do(r, http.MethodGet, "/v1/preferences", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot preferences.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.AreLinkPreviewsEnabled)

	w = do(r, http.MethodPut, "/v1/preferences/link-previews", SetPreferenceRequest{Value: "false", Sync: true}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.False(t, snapshot.AreLinkPreviewsEnabled)

	w = do(r, http.MethodPut, "/v1/preferences/"+preferences.EpochPreference, SetPreferenceRequest{Value: "99"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.NotNil(t, snapshot.MessageRequestInteractionIDEpoch)
	assert.Equal(t, int64(99), *snapshot.MessageRequestInteractionIDEpoch)

	w = do(r, http.MethodDelete, "/v1/preferences/"+preferences.EpochPreference, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/v1/preferences", nil, "")
	snapshot = preferences.Snapshot{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Nil(t, snapshot.MessageRequestInteractionIDEpoch)
}

func TestSetPreferenceErrors(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{})

	testCases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown preference", "/v1/preferences/dark-mode", SetPreferenceRequest{Value: "true"}, http.StatusNotFound},
		{"bad bool", "/v1/preferences/saved-thread", SetPreferenceRequest{Value: "maybe"}, http.StatusBadRequest},
		{"bad epoch", "/v1/preferences/" + preferences.EpochPreference, SetPreferenceRequest{Value: "soon"}, http.StatusBadRequest},
		{"missing value", "/v1/preferences/saved-thread", map[string]bool{"sync": true}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPut, tc.path, tc.body, "")
			assert.Equal(t, tc.status, w.Code)
		})
	}

	w := do(r, http.MethodDelete, "/v1/preferences/saved-thread", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchemaAndMarkers(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{})

	w := do(r, http.MethodPost, "/v1/schema/mark-latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status schema.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, schema.LatestVersion, status.Current)
	assert.False(t, status.Unknown)

	w = do(r, http.MethodGet, "/v1/markers", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isYdbMigrated":false,"didEverUseYdb":false}`, w.Body.String())
}

func TestJWTAuth(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{JWTSecret: testSecret})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/preferences", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/preferences", nil, signToken(t, "other", "alice")).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/preferences", nil, signToken(t, testSecret, "")).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/preferences", nil, signToken(t, testSecret, "alice")).Code)

	// health and metrics stay open
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", nil, "").Code)
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	r := newTestRouter(t, config.HTTPConfig{})
	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			w := do(r, http.MethodGet, "/v1/preferences", nil, "")
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			value := strconv.FormatBool(i%2 == 1)
			w := do(r, http.MethodPut, "/v1/preferences/saved-thread", SetPreferenceRequest{Value: value}, "")
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}()
	wg.Wait()

	w := do(r, http.MethodGet, "/v1/preferences", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot preferences.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.HasSavedThread)
}
