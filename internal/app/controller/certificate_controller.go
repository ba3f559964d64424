package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/app/service"
	apperrors "github.com/halalverify/halal-backend/internal/errors"
	"github.com/halalverify/halal-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CertificateController struct {
	certificateService service.CertificateService
	revocationService  service.RevocationService
}

func NewCertificateController(certificateService service.CertificateService, revocationService service.RevocationService) *CertificateController {
	return &CertificateController{
		certificateService: certificateService,
		revocationService:  revocationService,
	}
}

type IssueCertificateRequest struct {
	SubjectID     uint `json:"subject_id" binding:"required"`
	ApplicationID uint `json:"application_id" binding:"required"`
}

type RevokeCertificateRequest struct {
	Reason string `json:"reason"`
}

// IssueCertificate is called by the approval workflow once an application
// is approved.
func (ctrl *CertificateController) IssueCertificate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid issue certificate request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"subject_id":     "required",
			"application_id": "required",
		})
		return
	}

	cert, err := ctrl.certificateService.IssueCertificate(c.Request.Context(), req.SubjectID, req.ApplicationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateActiveCertificate):
			apperrors.Conflict(c, apperrors.CertificateDuplicateActive, "Business already holds an active certificate")
		case errors.Is(err, service.ErrNotApproved):
			apperrors.NotFound(c, apperrors.CertificateNotApproved, "Approved application not found")
		case errors.Is(err, service.ErrBusinessNotFound):
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
		case errors.Is(err, service.ErrIdentifierExhausted):
			log.Error("Certificate number allocation exhausted", err, map[string]interface{}{
				"subject_id": req.SubjectID,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CertificateIdentifierExhausted, "Could not allocate a certificate number")
		default:
			log.Error("Failed to issue certificate", err, map[string]interface{}{
				"subject_id":     req.SubjectID,
				"application_id": req.ApplicationID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Certificate issued", map[string]interface{}{
		"certificate_id":     cert.ID,
		"certificate_number": cert.CertificateNumber,
	})

	c.JSON(http.StatusCreated, gin.H{
		"certificate": cert,
	})
}

func (ctrl *CertificateController) RevokeCertificate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	var req RevokeCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid revoke request", map[string]interface{}{
			"certificate_id": id,
			"error":          err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	var actorID *uint
	if userID, ok := middleware.GetUserID(c); ok {
		actorID = &userID
	}

	cert, err := ctrl.revocationService.Revoke(id, req.Reason, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRevocationReasonRequired):
			apperrors.BadRequest(c, apperrors.CertificateReasonRequired, "Revocation reason is required")
		case errors.Is(err, service.ErrCertificateNotFound):
			apperrors.NotFound(c, apperrors.CertificateNotFound, "Certificate not found")
		case errors.Is(err, service.ErrAlreadyRevoked):
			apperrors.Conflict(c, apperrors.CertificateAlreadyRevoked, "Certificate is already revoked")
		default:
			log.Error("Failed to revoke certificate", err, map[string]interface{}{
				"certificate_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Certificate revoked", map[string]interface{}{
		"certificate_id": cert.ID,
		"actor_id":       actorID,
	})

	c.JSON(http.StatusOK, gin.H{
		"certificate": cert,
	})
}

func parseListOptions(c *gin.Context) (service.CertificateListOptions, map[string]string) {
	var opts service.CertificateListOptions
	invalid := make(map[string]string)

	if raw := c.Query("business_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			invalid["business_id"] = "must be a positive integer"
		} else {
			businessID := uint(id)
			opts.BusinessID = &businessID
		}
	}

	if raw := c.Query("status"); raw != "" {
		status := model.EffectiveStatus(raw)
		if !status.Valid() {
			invalid["status"] = "must be one of active, expired, revoked"
		} else {
			opts.Status = &status
		}
	}

	return opts, invalid
}

func (ctrl *CertificateController) ListCertificates(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts, invalid := parseListOptions(c)
	if len(invalid) > 0 {
		apperrors.RespondWithValidationError(c, invalid)
		return
	}

	certs, err := ctrl.certificateService.ListCertificates(opts)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}
		log.Error("Failed to list certificates", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificates": certs,
		"count":        len(certs),
	})
}

func (ctrl *CertificateController) GetCertificate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	cert, err := ctrl.certificateService.GetCertificate(id)
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			apperrors.NotFound(c, apperrors.CertificateNotFound, "Certificate not found")
			return
		}
		log.Error("Failed to fetch certificate", err, map[string]interface{}{
			"certificate_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificate": cert,
	})
}

func (ctrl *CertificateController) DownloadDocument(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	doc, err := ctrl.certificateService.RenderDocument(id)
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			apperrors.NotFound(c, apperrors.CertificateNotFound, "Certificate not found")
			return
		}
		log.Error("Failed to render certificate document", err, map[string]interface{}{
			"certificate_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func (ctrl *CertificateController) ArchiveDocument(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	obj, err := ctrl.certificateService.ArchiveDocument(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCertificateNotFound):
			apperrors.NotFound(c, apperrors.CertificateNotFound, "Certificate not found")
		case errors.Is(err, service.ErrArchiveDisabled):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalStorageError, "Document archive is not configured")
		default:
			log.Error("Failed to archive certificate document", err, map[string]interface{}{
				"certificate_id": id,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalStorageError, "Failed to archive document")
		}
		return
	}

	c.JSON(http.StatusOK, obj)
}

func (ctrl *CertificateController) ExportRegistry(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts, invalid := parseListOptions(c)
	if len(invalid) > 0 {
		apperrors.RespondWithValidationError(c, invalid)
		return
	}

	content, err := ctrl.certificateService.ExportRegistry(opts)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}
		log.Error("Failed to export certificate registry", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="certificates.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, content)
}
