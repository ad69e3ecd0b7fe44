package http

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groupcam/internal/core/domain"
	"groupcam/internal/core/ports"
	apperrors "groupcam/pkg/errors"
)

// CameraHandler serves the camera and preset management endpoints.
type CameraHandler struct {
	manager ports.CameraManager
	logger  *zap.Logger
}

func NewCameraHandler(manager ports.CameraManager, logger *zap.Logger) *CameraHandler {
	return &CameraHandler{manager: manager, logger: logger}
}

type presetRequest struct {
	Number int               `json:"number"`
	Name   string            `json:"name"`
	Type   string            `json:"type" binding:"required"`
	Params map[string]string `json:"params"`
	Active bool              `json:"active"`
}

func (r presetRequest) toDomain() (domain.Preset, bool) {
	t := domain.PresetType(r.Type)
	if !domain.ValidPresetType(t) {
		return domain.Preset{}, false
	}
	return domain.Preset{
		Number: r.Number,
		Name:   r.Name,
		Type:   t,
		Params: r.Params,
		Active: r.Active,
	}, true
}

type createCameraRequest struct {
	Title      string          `json:"title" binding:"required"`
	NicknameRE string          `json:"nickname_regexp" binding:"required"`
	Presets    []presetRequest `json:"presets"`
}

// ListCameras returns every persisted camera.
func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras, err := h.manager.ListCameras(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cameras": cameras})
}

// CreateCamera validates the payload, allocates a device and brings
// the camera online.
func (h *CameraHandler) CreateCamera(c *gin.Context) {
	var req createCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and nickname_regexp are required"})
		return
	}

	if _, err := regexp.Compile(req.NicknameRE); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nickname_regexp"})
		return
	}

	presets := make([]domain.Preset, 0, len(req.Presets))
	for _, p := range req.Presets {
		preset, ok := p.toDomain()
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset type " + p.Type})
			return
		}
		presets = append(presets, preset)
	}

	camera, err := h.manager.AddCamera(c.Request.Context(), ports.CameraInput{
		Title:      req.Title,
		NicknameRE: req.NicknameRE,
		Presets:    presets,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, camera)
}

// ListPresets returns the presets of one camera.
func (h *CameraHandler) ListPresets(c *gin.Context) {
	presets, err := h.manager.ListPresets(c.Request.Context(), domain.CameraID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// CreatePreset appends a preset to a camera.
func (h *CameraHandler) CreatePreset(c *gin.Context) {
	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preset type is required"})
		return
	}

	preset, ok := req.toDomain()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset type " + req.Type})
		return
	}

	if err := h.manager.AddPreset(c.Request.Context(), domain.CameraID(c.Param("id")), preset); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

// UpdatePreset replaces a preset by number.
func (h *CameraHandler) UpdatePreset(c *gin.Context) {
	number, ok := h.presetNumber(c)
	if !ok {
		return
	}

	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preset type is required"})
		return
	}

	preset, valid := req.toDomain()
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset type " + req.Type})
		return
	}

	if err := h.manager.UpdatePreset(c.Request.Context(), domain.CameraID(c.Param("id")), number, preset); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeletePreset removes a preset by number.
func (h *CameraHandler) DeletePreset(c *gin.Context) {
	number, ok := h.presetNumber(c)
	if !ok {
		return
	}

	if err := h.manager.DeletePreset(c.Request.Context(), domain.CameraID(c.Param("id")), number); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ActivatePreset switches the running camera layout.
func (h *CameraHandler) ActivatePreset(c *gin.Context) {
	number, ok := h.presetNumber(c)
	if !ok {
		return
	}

	if err := h.manager.ActivatePreset(c.Request.Context(), domain.CameraID(c.Param("id")), number); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated"})
}

// ListUsers returns the nicknames currently producing video.
func (h *CameraHandler) ListUsers(c *gin.Context) {
	users := h.manager.ActiveParticipants()
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *CameraHandler) presetNumber(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preset number must be a positive integer"})
		return 0, false
	}
	return number, true
}

// fail translates core errors to the AppError taxonomy and responds.
func (h *CameraHandler) fail(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = translateDomainError(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func translateDomainError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, domain.ErrCameraNotFound):
		return apperrors.NewNotFoundError("camera")
	case errors.Is(err, domain.ErrPresetNotFound):
		return apperrors.NewNotFoundError("preset")
	case errors.Is(err, domain.ErrNoFreeDevice):
		return apperrors.NewServiceUnavailableError("no free output device")
	case errors.Is(err, domain.ErrLayoutNotImplemented):
		return apperrors.NewUnprocessableError("layout type not implemented")
	case errors.Is(err, domain.ErrCameraExists):
		return apperrors.NewConflictError("camera already exists")
	default:
		return apperrors.WrapError(err, apperrors.ErrCodeInternal,
			"internal error", http.StatusInternalServerError)
	}
}
