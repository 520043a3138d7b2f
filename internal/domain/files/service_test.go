package files

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
)

type fakeRepo struct {
	assets map[id.ID]*Asset
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{assets: make(map[id.ID]*Asset)}
}

func (r *fakeRepo) Get(_ context.Context, assetID id.ID) (*Asset, error) {
	a, ok := r.assets[assetID]
	if !ok {
		return nil, apperror.NewNotFound("file asset", assetID)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) Create(_ context.Context, asset *Asset) error {
	cp := *asset
	r.assets[asset.ID] = &cp
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, assetID id.ID, status string) error {
	a, ok := r.assets[assetID]
	if !ok {
		return apperror.NewNotFound("file asset", assetID)
	}
	a.Status = status
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, assetID id.ID) error {
	delete(r.assets, assetID)
	return nil
}

func (r *fakeRepo) UsedBytes(_ context.Context, agencyID string) (int64, error) {
	var used int64
	for _, a := range r.assets {
		if a.AgencyID == agencyID {
			used += a.SizeBytes
		}
	}
	return used, nil
}

func (r *fakeRepo) ExpiredPending(_ context.Context, agencyID string, cutoff time.Time) ([]Asset, error) {
	var out []Asset
	for _, a := range r.assets {
		if a.AgencyID == agencyID && a.Status == StatusPending && a.CreatedAt.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeStore struct {
	deleted []string
}

func (s *fakeStore) SignedPutURL(_ context.Context, objectKey, _ string) (string, error) {
	return "https://storage.example.com/" + objectKey + "?signed", nil
}

func (s *fakeStore) Delete(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

type fixedQuota int64

func (q fixedQuota) StorageQuota(_ context.Context, _ string) (int64, error) {
	return int64(q), nil
}

func testCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "user-1",
		AgencyID: "agency-1",
		Role:     "administrativo",
	})
}

func bookingAsset(name string, size int64) *Asset {
	bookingID := id.New()
	return &Asset{
		BookingID:   &bookingID,
		FileName:    name,
		ContentType: "application/pdf",
		SizeBytes:   size,
	}
}

func TestSignUploadLifecycle(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	svc := NewService(repo, store, fixedQuota(1<<20))

	signed, err := svc.SignUpload(testCtx(), bookingAsset("voucher.pdf", 1024))
	require.NoError(t, err)
	assert.Contains(t, signed.UploadURL, signed.ObjectKey)

	stored := repo.assets[signed.AssetID]
	require.NotNil(t, stored)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "agency-1", stored.AgencyID)

	activated, err := svc.Complete(testCtx(), signed.AssetID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, activated.Status)

	// completing twice conflicts
	_, err = svc.Complete(testCtx(), signed.AssetID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestSignUploadEnforcesQuota(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStore{}, fixedQuota(1000))

	_, err := svc.SignUpload(testCtx(), bookingAsset("a.pdf", 600))
	require.NoError(t, err)

	_, err = svc.SignUpload(testCtx(), bookingAsset("b.pdf", 500))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeQuotaExceeded, appErr.Code)
}

func TestSignUploadCollectsExpiredPending(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	svc := NewService(repo, store, fixedQuota(1000))

	stale := &Asset{
		ID:        id.New(),
		AgencyID:  "agency-1",
		FileName:  "stale.pdf",
		SizeBytes: 800,
		ObjectKey: "agencies/agency-1/stale.pdf",
		Status:    StatusPending,
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	repo.assets[stale.ID] = stale

	// without garbage collection this would exceed the quota
	_, err := svc.SignUpload(testCtx(), bookingAsset("fresh.pdf", 500))
	require.NoError(t, err)

	_, exists := repo.assets[stale.ID]
	assert.False(t, exists)
	assert.Contains(t, store.deleted, stale.ObjectKey)
}

func TestSignUploadKeepsFreshPending(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStore{}, fixedQuota(1000))

	fresh := &Asset{
		ID:        id.New(),
		AgencyID:  "agency-1",
		FileName:  "fresh.pdf",
		SizeBytes: 800,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC().Add(-1 * time.Hour),
	}
	repo.assets[fresh.ID] = fresh

	_, err := svc.SignUpload(testCtx(), bookingAsset("new.pdf", 500))
	require.Error(t, err, "fresh pending rows still reserve quota")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeQuotaExceeded, appErr.Code)
}

func TestExclusiveOwnership(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStore{}, fixedQuota(0))

	bookingID, clientID := id.New(), id.New()
	asset := &Asset{
		BookingID: &bookingID,
		ClientID:  &clientID,
		FileName:  "dual.pdf",
		SizeBytes: 10,
	}
	_, err := svc.SignUpload(testCtx(), asset)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDeleteRemovesObjectAndRow(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	svc := NewService(repo, store, fixedQuota(0))

	signed, err := svc.SignUpload(testCtx(), bookingAsset("doc.pdf", 10))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(testCtx(), signed.AssetID))
	_, exists := repo.assets[signed.AssetID]
	assert.False(t, exists)
	assert.Contains(t, store.deleted, signed.ObjectKey)
}

func TestCrossAgencyAssetForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStore{}, fixedQuota(0))

	foreign := &Asset{
		ID:       id.New(),
		AgencyID: "agency-2",
		FileName: "other.pdf",
		Status:   StatusActive,
	}
	repo.assets[foreign.ID] = foreign

	_, err := svc.Get(testCtx(), foreign.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}
