package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/halalverify/halal-backend/config"
	"github.com/halalverify/halal-backend/internal/app/controller"
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/middleware"
)

type Router struct {
	certificateController  *controller.CertificateController
	verificationController *controller.VerificationController
	authMiddleware         *middleware.AuthMiddleware
	verifyLimiter          gin.HandlerFunc
	config                 *config.Config
}

// NewRouter wires the HTTP surface. verifyLimiter guards the public
// verification routes and may be nil.
func NewRouter(
	certificateController *controller.CertificateController,
	verificationController *controller.VerificationController,
	authMiddleware *middleware.AuthMiddleware,
	verifyLimiter gin.HandlerFunc,
	cfg *config.Config,
) *Router {
	if verifyLimiter == nil {
		verifyLimiter = func(c *gin.Context) { c.Next() }
	}
	return &Router{
		certificateController:  certificateController,
		verificationController: verificationController,
		authMiddleware:         authMiddleware,
		verifyLimiter:          verifyLimiter,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Halal certificate API is running",
		})
	})

	// printed QR codes point here; the path shape must never change
	router.GET("/verify/:certificate_number", r.verifyLimiter, r.verificationController.Verify)

	v1 := router.Group("/api/v1")
	{
		verify := v1.Group("/verify")
		verify.Use(r.verifyLimiter)
		{
			verify.GET("/:certificate_number", r.verificationController.Verify)
			verify.GET("/:certificate_number/qr", r.verificationController.QRCode)
		}

		certificates := v1.Group("/certificates")
		certificates.Use(r.authMiddleware.Authenticate())
		{
			certificates.POST("",
				r.authMiddleware.RequireRole(model.RoleAdmin, model.RoleSystem),
				r.certificateController.IssueCertificate,
			)
			certificates.PATCH("/:id/revoke",
				r.authMiddleware.RequireRole(model.RoleAdmin),
				r.certificateController.RevokeCertificate,
			)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/certificates", r.certificateController.ListCertificates)
			admin.GET("/certificates/export", r.certificateController.ExportRegistry)
			admin.GET("/certificates/:id", r.certificateController.GetCertificate)
			admin.GET("/certificates/:id/document", r.certificateController.DownloadDocument)
			admin.POST("/certificates/:id/archive", r.certificateController.ArchiveDocument)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
