package errors

// Error code constants
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED" // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Certificate (CERTIFICATE_) ====================
	CertificateNotFound            = "CERTIFICATE_NOT_FOUND"           // also used for malformed numbers on the public path
	CertificateNotApproved         = "CERTIFICATE_NOT_APPROVED"        // application missing or not approved
	CertificateDuplicateActive     = "CERTIFICATE_DUPLICATE_ACTIVE"    // subject already holds an active certificate
	CertificateAlreadyRevoked      = "CERTIFICATE_ALREADY_REVOKED"
	CertificateIdentifierExhausted = "CERTIFICATE_IDENTIFIER_EXHAUSTED"
	CertificateReasonRequired      = "CERTIFICATE_REASON_REQUIRED"

	// ==================== Business (BUSINESS_) ====================
	BusinessNotFound = "BUSINESS_NOT_FOUND"

	// ==================== Rate limiting (RATE_) ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalStorageError  = "INTERNAL_STORAGE_ERROR" // object storage upload
)
