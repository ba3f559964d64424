package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/halalverify/halal-backend/internal/app/service"
	apperrors "github.com/halalverify/halal-backend/internal/errors"
	"github.com/halalverify/halal-backend/internal/middleware"
)

// VerificationController serves the public lookup. Malformed and unknown
// numbers get the same 404 body.
type VerificationController struct {
	verificationService service.VerificationService
}

func NewVerificationController(verificationService service.VerificationService) *VerificationController {
	return &VerificationController{verificationService: verificationService}
}

func isPublicNotFound(err error) bool {
	return errors.Is(err, service.ErrInvalidFormat) || errors.Is(err, service.ErrCertificateNotFound)
}

func (ctrl *VerificationController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	number := c.Param("certificate_number")

	result, err := ctrl.verificationService.Verify(number)
	if err != nil {
		if isPublicNotFound(err) {
			apperrors.RespondVerificationNotFound(c)
			return
		}
		log.Error("Failed to verify certificate", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, result)
}

func (ctrl *VerificationController) QRCode(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	number := c.Param("certificate_number")

	png, err := ctrl.verificationService.QRCode(number)
	if err != nil {
		if isPublicNotFound(err) {
			apperrors.RespondVerificationNotFound(c)
			return
		}
		log.Error("Failed to load certificate QR code", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
