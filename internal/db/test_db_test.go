package db

import (
	"testing"

	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB_MigratesModels(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	for _, m := range Models() {
		assert.True(t, testDB.Migrator().HasTable(m))
	}
	assert.True(t, testDB.Migrator().HasIndex(&model.Certificate{}, "idx_certificates_active_business"))
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	business := &model.Business{Name: "Noor Grill", Region: "Busan", District: "Haeundae-gu"}
	require.NoError(t, testDB.Create(business).Error)
	require.NoError(t, testDB.Create(&model.Application{BusinessID: business.ID}).Error)

	require.NoError(t, TruncateAllTables(testDB))

	var count int64
	require.NoError(t, testDB.Unscoped().Model(&model.Business{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, testDB.Unscoped().Model(&model.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}
