package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCertificateTest(t *testing.T) (*gorm.DB, CertificateRepository, *model.Business, *model.Application) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	business := &model.Business{
		Name:     "Barakah Kitchen",
		Region:   "Seoul",
		District: "Yongsan-gu",
		Address:  "12 Itaewon-ro",
	}
	require.NoError(t, testDB.Create(business).Error)

	application := &model.Application{
		BusinessID: business.ID,
		Status:     model.ApplicationStatusApproved,
	}
	require.NoError(t, testDB.Create(application).Error)

	return testDB, NewCertificateRepository(testDB), business, application
}

func newTestCertificate(business *model.Business, application *model.Application, number string) *model.Certificate {
	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Certificate{
		CertificateNumber: number,
		BusinessID:        business.ID,
		ApplicationID:     application.ID,
		IssuedDate:        issued,
		ExpiryDate:        issued.AddDate(1, 0, 0),
		VerificationURL:   "https://verify.example.com/verify/" + number,
		QRCode:            []byte{0x89, 'P', 'N', 'G'},
	}
}

func TestCertificateRepository_Create(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	err := repo.Create(cert)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.ID)
	assert.Equal(t, model.CertificateStatusActive, cert.Status)

	found, err := repo.FindByCertificateNumber("HAL-2025-1001")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
	assert.Equal(t, business.Name, found.Business.Name)
	assert.Equal(t, cert.QRCode, found.QRCode)
}

func TestCertificateRepository_Create_DuplicateNumber(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	first := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.MarkRevoked(first.ID, "closed", time.Now().UTC(), nil))

	second := newTestCertificate(business, application, "HAL-2025-1001")
	err := repo.Create(second)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)
}

func TestCertificateRepository_Create_SecondActiveForBusiness(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, repo.Create(newTestCertificate(business, application, "HAL-2025-1001")))

	err := repo.Create(newTestCertificate(business, application, "HAL-2025-1002"))
	assert.True(t, errors.Is(err, ErrDuplicateActive), "got %v", err)
}

func TestCertificateRepository_Create_AfterRevocation(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	first := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.MarkRevoked(first.ID, "relocated", time.Now().UTC(), nil))

	second := newTestCertificate(business, application, "HAL-2025-1002")
	assert.NoError(t, repo.Create(second))

	all, err := repo.FindAll(CertificateFilter{BusinessID: &business.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCertificateRepository_FindByID_NotFound(t *testing.T) {
	testDB, repo, _, _ := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByID("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByCertificateNumber("HAL-2025-9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificateRepository_FindActiveByBusiness(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindActiveByBusiness(business.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(cert))

	active, err := repo.FindActiveByBusiness(business.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, active.ID)

	require.NoError(t, repo.MarkRevoked(cert.ID, "closed", time.Now().UTC(), nil))
	_, err = repo.FindActiveByBusiness(business.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificateRepository_ExistsByCertificateNumber(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	exists, err := repo.ExistsByCertificateNumber("HAL-2025-1001")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(newTestCertificate(business, application, "HAL-2025-1001")))

	exists, err = repo.ExistsByCertificateNumber("HAL-2025-1001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCertificateRepository_NextSequence(t *testing.T) {
	testDB, repo, _, _ := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence("HAL", 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// counters are independent per prefix and per year
	got, err := repo.NextSequence("HAL", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = repo.NextSequence("MUI", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestCertificateRepository_NextSequence_RolledBack(t *testing.T) {
	testDB, repo, _, _ := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.NextSequence("HAL", 2025)
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = testDB.Transaction(func(tx *gorm.DB) error {
		got, err := NewCertificateRepository(tx).NextSequence("HAL", 2025)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got)
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	got, err := repo.NextSequence("HAL", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestCertificateRepository_AdvanceSequence(t *testing.T) {
	testDB, repo, _, _ := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	// seeds a missing counter
	require.NoError(t, repo.AdvanceSequence("HAL", 2025, 5))
	got, err := repo.NextSequence("HAL", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	// never moves a counter backwards
	require.NoError(t, repo.AdvanceSequence("HAL", 2025, 2))
	got, err = repo.NextSequence("HAL", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestCertificateRepository_MaxSequence(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	highest, err := repo.MaxSequence("HAL", 2025)
	require.NoError(t, err)
	assert.Zero(t, highest)

	for _, number := range []string{"HAL-2025-0999", "HAL-2025-10042", "HAL-2025-1003", "HAL-2026-5000", "MUI-2025-9000"} {
		cert := newTestCertificate(business, application, number)
		require.NoError(t, repo.Create(cert))
		require.NoError(t, repo.MarkRevoked(cert.ID, "superseded", time.Now().UTC(), nil))
	}

	highest, err = repo.MaxSequence("HAL", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(10042), highest)
}

func TestCertificateRepository_MarkRevoked(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(cert))

	adminID := uint(7)
	revokedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRevoked(cert.ID, "contamination found", revokedAt, &adminID))

	found, err := repo.FindByID(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CertificateStatusRevoked, found.Status)
	require.NotNil(t, found.RevocationReason)
	assert.Equal(t, "contamination found", *found.RevocationReason)
	require.NotNil(t, found.RevokedAt)
	assert.True(t, revokedAt.Equal(*found.RevokedAt))
	require.NotNil(t, found.RevokedBy)
	assert.Equal(t, adminID, *found.RevokedBy)

	// creation fields are untouched
	assert.Equal(t, cert.CertificateNumber, found.CertificateNumber)
	assert.True(t, cert.IssuedDate.Equal(found.IssuedDate))
	assert.True(t, cert.ExpiryDate.Equal(found.ExpiryDate))
	assert.Equal(t, cert.QRCode, found.QRCode)
}

func TestCertificateRepository_MarkRevoked_Twice(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(cert))
	require.NoError(t, repo.MarkRevoked(cert.ID, "first", time.Now().UTC(), nil))

	err := repo.MarkRevoked(cert.ID, "second", time.Now().UTC(), nil)
	assert.ErrorIs(t, err, ErrAlreadyRevoked)

	found, err := repo.FindByID(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", *found.RevocationReason)
}

func TestCertificateRepository_MarkRevoked_NotFound(t *testing.T) {
	testDB, repo, _, _ := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	err := repo.MarkRevoked("missing", "reason", time.Now().UTC(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificateRepository_CreateOnlyColumns(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(cert))

	err := testDB.Model(&model.Certificate{}).Where("id = ?", cert.ID).Updates(map[string]interface{}{
		"certificate_number": "HAL-2025-9999",
		"expiry_date":        cert.ExpiryDate.AddDate(5, 0, 0),
	}).Error
	require.NoError(t, err)

	found, err := repo.FindByID(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, "HAL-2025-1001", found.CertificateNumber)
	assert.True(t, cert.ExpiryDate.Equal(found.ExpiryDate))
}

func TestCertificateRepository_FindAll(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	other := &model.Business{Name: "Zam Zam Grill", Region: "Busan", District: "Haeundae-gu"}
	require.NoError(t, testDB.Create(other).Error)
	otherApp := &model.Application{BusinessID: other.ID, Status: model.ApplicationStatusApproved}
	require.NoError(t, testDB.Create(otherApp).Error)

	revoked := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(revoked))
	require.NoError(t, repo.MarkRevoked(revoked.ID, "closed", time.Now().UTC(), nil))
	require.NoError(t, repo.Create(newTestCertificate(business, application, "HAL-2025-1002")))
	require.NoError(t, repo.Create(newTestCertificate(other, otherApp, "HAL-2025-1003")))

	all, err := repo.FindAll(CertificateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byBusiness, err := repo.FindAll(CertificateFilter{BusinessID: &business.ID})
	require.NoError(t, err)
	assert.Len(t, byBusiness, 2)

	status := model.CertificateStatusRevoked
	byStatus, err := repo.FindAll(CertificateFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "HAL-2025-1001", byStatus[0].CertificateNumber)
}

func TestCertificateRepository_FindExpiringBetween(t *testing.T) {
	testDB, repo, business, application := setupCertificateTest(t)
	defer db.CleanupTestDB(testDB)

	cert := newTestCertificate(business, application, "HAL-2025-1001")
	require.NoError(t, repo.Create(cert))

	inWindow, err := repo.FindExpiringBetween(cert.ExpiryDate.AddDate(0, 0, -30), cert.ExpiryDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, inWindow, 1)
	assert.Equal(t, business.Name, inWindow[0].Business.Name)

	outside, err := repo.FindExpiringBetween(cert.ExpiryDate.AddDate(0, 0, -60), cert.ExpiryDate.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, outside)

	require.NoError(t, repo.MarkRevoked(cert.ID, "closed", time.Now().UTC(), nil))
	afterRevoke, err := repo.FindExpiringBetween(cert.ExpiryDate.AddDate(0, 0, -30), cert.ExpiryDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, afterRevoke)
}
