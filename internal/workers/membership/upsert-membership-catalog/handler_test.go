package upsertmembershipcatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"clinic-workers/internal/common/database"
	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

const existingID = "7a1f4f0e-3b9e-4f57-9c51-2d7d0c1e0b01"

// ==========================
// Test Helper Functions
// ==========================

func createTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(ServiceDependencies{
		DB:     database.NewPostgresFromDB(db),
		Logger: logger.NewTestLogger(t),
		Clock:  func() time.Time { return testNow },
	})
	return svc, mock
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "membership-catalog",
		ElementId:          "Activity_UpsertCatalog",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func boolPtr(b bool) *bool { return &b }

func expectTierLock(mock sqlmock.Sqlmock, tier string) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("membership_catalog:" + tier).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectConflictCheck(mock sqlmock.Sqlmock, tier string, rows *sqlmock.Rows) {
	expectTierLock(mock, tier)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM membership_catalog")).
		WithArgs(tier, testNow, sqlmock.AnyArg()).
		WillReturnRows(rows)
}

// ==========================
// Service Tests
// ==========================

func TestService_CreateBasic(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	expectConflictCheck(mock, "basic", sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO membership_catalog")).
		WithArgs(sqlmock.AnyArg(), "basic", "Basic 2025", "", 3000.0, 5000.0, true, nil, true, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Execute(context.Background(), &Input{
		Tier: "Basic", Name: " Basic 2025 ", Price: 3000, Coverage: 5000, NoExpiration: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Len(t, out.CatalogID, 36)
	assert.Equal(t, "basic", out.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DuplicateActiveTier(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	expectConflictCheck(mock, "pro", sqlmock.NewRows([]string{"id"}).AddRow(existingID))
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{Tier: "pro", Name: "Pro", Price: 6000, Coverage: 10000, NoExpiration: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDuplicateActiveTier, errors.CodeOf(err))

	stdErr, _ := errors.AsStandard(err)
	assert.Equal(t, existingID, stdErr.Metadata["existingId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateExcludesItself(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	expectTierLock(mock, "basic")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM membership_catalog")).
		WithArgs("basic", testNow, existingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE membership_catalog")).
		WithArgs(existingID, "basic", "Basic", "Renamed", 3500.0, 5000.0, true, nil, true, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Execute(context.Background(), &Input{
		ID: existingID, Tier: "basic", Name: "Basic", Description: "Renamed", Price: 3500, Coverage: 5000, NoExpiration: true,
	})
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, existingID, out.CatalogID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_TierLockFailure(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WithArgs("membership_catalog:pro").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{Tier: "pro", Name: "Pro", Price: 6000, Coverage: 10000, NoExpiration: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateMissingRow(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE membership_catalog")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{
		ID: existingID, Tier: "basic", Name: "Basic", Price: 3000, Coverage: 5000, Active: boolPtr(false),
	})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_PromoIsNeverGuarded(t *testing.T) {
	svc, mock := createTestService(t)
	validUntil := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO membership_catalog")).
		WithArgs(sqlmock.AnyArg(), "promo", "Summer Glow", "", 500.0, 2000.0, false, validUntil, true, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Execute(context.Background(), &Input{
		Tier: "promo", Name: "Summer Glow", Price: 500, Coverage: 2000, ValidUntil: "2025-06-30",
	})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_PromoRules(t *testing.T) {
	svc, mock := createTestService(t)

	_, err := svc.Execute(context.Background(), &Input{Tier: "promo", Name: "Open-ended", Price: 500, Coverage: 2000})
	assert.Equal(t, "valid_until", errors.FieldOf(err))

	_, err = svc.Execute(context.Background(), &Input{Tier: "promo", Name: "Free", Price: 500, Coverage: 0, NoExpiration: true})
	assert.Equal(t, "consumable_amount", errors.FieldOf(err))

	_, err = svc.Execute(context.Background(), &Input{Tier: "gold", Name: "Gold", Price: 1, Coverage: 1})
	assert.True(t, errors.IsInvalidTier(err))

	assert.NoError(t, mock.ExpectationsWereMet(), "rejected before touching the database")
}

func TestService_InsertFailure(t *testing.T) {
	svc, mock := createTestService(t)

	mock.ExpectBegin()
	expectConflictCheck(mock, "basic", sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO membership_catalog")).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := svc.Execute(context.Background(), &Input{Tier: "basic", Name: "Basic", Price: 3000, Coverage: 5000})
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, errors.CodeOf(err))
	assert.Equal(t, 3, errors.GetRetryCount(errors.CodeOf(err)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		DB:           database.NewPostgresFromDB(db),
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	in, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"tier": "promo", "name": "Summer", "price": 500, "coverage": 2000, "validUntil": "2025-06-30", "active": false,
	}))
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", in.ValidUntil)
	require.NotNil(t, in.Active)
	assert.False(t, *in.Active)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"tier": "gold", "name": "Gold", "price": 1, "coverage": 1}))
	assert.True(t, errors.IsInvalidTier(err))

	_, err = h.parseInput(createMockJob(3, map[string]interface{}{"tier": "basic", "name": "Basic", "price": 0, "coverage": 5000}))
	assert.Equal(t, "price", errors.FieldOf(err))

	_, err = h.parseInput(createMockJob(4, map[string]interface{}{"tier": "basic", "price": 3000, "coverage": 5000}))
	assert.Equal(t, "name", errors.FieldOf(err))
}

func TestHandler_NewHandler_RequiresDB(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.ErrorContains(t, err, "requires a postgres client")
}
