package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	"groupcam/internal/core/services"
	"groupcam/internal/infrastructure/events"
)

type stubManager struct {
	cameras      []*domain.Camera
	addErr       error
	presetErr    error
	activateErr  error
	participants []string
}

func (s *stubManager) ListCameras(ctx context.Context) ([]*domain.Camera, error) {
	return s.cameras, nil
}

func (s *stubManager) AddCamera(ctx context.Context, input ports.CameraInput) (*domain.Camera, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	cam := &domain.Camera{
		ID:         "cam-1",
		Title:      input.Title,
		NicknameRE: input.NicknameRE,
		Device:     0,
		DeviceName: "/dev/video0",
		Presets:    input.Presets,
	}
	s.cameras = append(s.cameras, cam)
	return cam, nil
}

func (s *stubManager) ListPresets(ctx context.Context, id domain.CameraID) ([]domain.Preset, error) {
	if s.presetErr != nil {
		return nil, s.presetErr
	}
	return nil, nil
}

func (s *stubManager) AddPreset(ctx context.Context, id domain.CameraID, p domain.Preset) error {
	return s.presetErr
}

func (s *stubManager) UpdatePreset(ctx context.Context, id domain.CameraID, n int, p domain.Preset) error {
	return s.presetErr
}

func (s *stubManager) DeletePreset(ctx context.Context, id domain.CameraID, n int) error {
	return s.presetErr
}

func (s *stubManager) ActivatePreset(ctx context.Context, id domain.CameraID, n int) error {
	return s.activateErr
}

func (s *stubManager) ActiveParticipants() []string {
	return s.participants
}

func newTestRouter(t *testing.T, manager ports.CameraManager) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	authService := services.NewAuthService("admin", "secret", "test-jwt-secret", time.Hour, logger)
	router := NewRouter(RouterConfig{},
		NewCameraHandler(manager, logger),
		NewAuthHandler(authService, logger),
		authService, events.NewHub(logger), nil, logger)

	token, err := authService.Login("admin", "secret")
	require.NoError(t, err)
	return router, token
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesToken(t *testing.T) {
	router, _ := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCamerasRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodGet, "/api/v1/cameras", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/cameras", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCamera(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras", token, map[string]interface{}{
		"title":           "Scandinavian Room",
		"nickname_regexp": ".*scandinavia.*",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cam domain.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cam))
	assert.Equal(t, "/dev/video0", cam.DeviceName)
}

func TestCreateCameraInvalidRegexp(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras", token, map[string]interface{}{
		"title":           "Broken",
		"nickname_regexp": "[",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCameraPoolExhausted(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{addErr: domain.ErrNoFreeDevice})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras", token, map[string]interface{}{
		"title":           "One Too Many",
		"nickname_regexp": ".*",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPresetOutOfRange(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{presetErr: domain.ErrPresetNotFound})

	w := doRequest(router, http.MethodPut, "/api/v1/cameras/cam-1/presets/9", token,
		map[string]interface{}{"type": "auto"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/cameras/cam-1/presets/9", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPresetUnknownType(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras/cam-1/presets", token,
		map[string]interface{}{"type": "7x7"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivateUnimplementedLayout(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{activateErr: domain.ErrLayoutNotImplemented})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras/cam-1/presets/2/activate", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestActivateMissingCamera(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{activateErr: domain.ErrCameraNotFound})

	w := doRequest(router, http.MethodPost, "/api/v1/cameras/nope/presets/1/activate", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	router, token := newTestRouter(t, &stubManager{participants: []string{"alice@scandinavian"}})

	w := doRequest(router, http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"alice@scandinavian"}, resp["users"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &stubManager{})

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
