package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echowipe/internal/domain"
	"echowipe/internal/service"
)

const audioField = "audio"

// Mensajes visibles para el usuario.
const (
	msgNoFile          = "No file uploaded"
	msgEmptyFilename   = "Empty filename"
	msgTooLarge        = "File too large"
	msgDetectionFailed = "Detection failed"
)

// DetectHandler recibe audios subidos y devuelve la clasificación.
type DetectHandler struct {
	logger         *zap.Logger
	detectServ     *service.DetectionService
	maxUploadBytes int64
}

// NewDetectHandler crea una instancia de DetectHandler con dependencias necesarias.
func NewDetectHandler(logger *zap.Logger, detectServ *service.DetectionService, maxUploadBytes int64) *DetectHandler {
	return &DetectHandler{
		logger:         logger,
		detectServ:     detectServ,
		maxUploadBytes: maxUploadBytes,
	}
}

// DetectPage maneja POST /detect y pinta el resultado en el dashboard.
func (h *DetectHandler) DetectPage(c *gin.Context) {
	session, _ := GetSession(c)
	view := pageView{Email: session.Email}

	result, status, msg := h.detect(c)
	if msg != "" {
		view.Error = msg
		c.HTML(status, "dashboard.html", view)
		return
	}
	view.Result = &result
	c.HTML(http.StatusOK, "dashboard.html", view)
}

// DetectAPI maneja POST /api/detect.
func (h *DetectHandler) DetectAPI(c *gin.Context) {
	result, status, msg := h.detect(c)
	if msg != "" {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, result)
}

// detect devuelve el status HTTP y el mensaje de cada fallo; msg vacío es
// éxito. La página HTML responde 200 salvo por tamaño excedido.
func (h *DetectHandler) detect(c *gin.Context) (domain.DetectionResult, int, string) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile(audioField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.DetectionResult{}, http.StatusRequestEntityTooLarge, msgTooLarge
		}
		return domain.DetectionResult{}, h.clientStatus(c), msgNoFile
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return domain.DetectionResult{}, h.clientStatus(c), msgEmptyFilename
	}

	result, err := h.runDetection(c, fileHeader)
	if err != nil {
		if errors.Is(err, service.ErrNoAudio) {
			return domain.DetectionResult{}, h.clientStatus(c), msgNoFile
		}
		h.logger.Error("detection failed", zap.Error(err), zap.String("filename", fileHeader.Filename))
		status := http.StatusOK
		if isAPI(c) {
			status = http.StatusBadGateway
		}
		return domain.DetectionResult{}, status, msgDetectionFailed
	}
	return result, http.StatusOK, ""
}

func (h *DetectHandler) runDetection(c *gin.Context, fileHeader *multipart.FileHeader) (domain.DetectionResult, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return domain.DetectionResult{}, err
	}
	defer f.Close()
	return h.detectServ.Detect(c.Request.Context(), fileHeader.Filename, f)
}

func (h *DetectHandler) clientStatus(c *gin.Context) int {
	if isAPI(c) {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.FullPath(), "/api/")
}
