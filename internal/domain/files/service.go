package files

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/pkg/logger"
)

// QuotaResolver returns the agency storage quota in bytes. Satisfied by
// the agency config service.
type QuotaResolver interface {
	StorageQuota(ctx context.Context, agencyID string) (int64, error)
}

// SignedUpload is what the client needs to perform the upload.
type SignedUpload struct {
	AssetID   id.ID  `json:"assetId"`
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// Service runs the upload lifecycle: sign, confirm, delete.
type Service struct {
	repo  Repository
	store ObjectStore
	quota QuotaResolver
}

func NewService(repo Repository, store ObjectStore, quota QuotaResolver) *Service {
	return &Service{repo: repo, store: store, quota: quota}
}

// SignUpload garbage-collects stale pending rows, checks the agency quota
// with the new file included, then reserves a pending row and returns a
// signed PUT URL.
func (s *Service) SignUpload(ctx context.Context, asset *Asset) (*SignedUpload, error) {
	if asset.AgencyID == "" {
		asset.AgencyID = appctx.GetAgencyID(ctx)
	}
	if err := asset.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.collectExpired(ctx, asset.AgencyID); err != nil {
		return nil, err
	}

	used, err := s.repo.UsedBytes(ctx, asset.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("read storage usage: %w", err)
	}
	quota, err := s.quota.StorageQuota(ctx, asset.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("read storage quota: %w", err)
	}
	if quota > 0 && used+asset.SizeBytes > quota {
		return nil, apperror.NewQuotaExceeded(used, quota)
	}

	asset.ID = id.New()
	asset.ObjectKey = fmt.Sprintf("agencies/%s/%s/%s", asset.AgencyID, asset.ID, asset.FileName)
	asset.Status = StatusPending
	asset.CreatedAt = time.Now().UTC()
	asset.CreatedBy = appctx.GetUserID(ctx)

	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("reserve asset row: %w", err)
	}

	url, err := s.store.SignedPutURL(ctx, asset.ObjectKey, asset.ContentType)
	if err != nil {
		return nil, fmt.Errorf("sign upload url: %w", err)
	}

	return &SignedUpload{AssetID: asset.ID, UploadURL: url, ObjectKey: asset.ObjectKey}, nil
}

// Complete confirms the client finished uploading and activates the row.
func (s *Service) Complete(ctx context.Context, assetID id.ID) (*Asset, error) {
	asset, err := s.get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != StatusPending {
		return nil, apperror.NewConflict(apperror.CodeConflict, "asset is not pending").
			WithSolution("Subí el archivo nuevamente.").
			WithDetail("asset_id", assetID).
			WithDetail("status", asset.Status)
	}
	if err := s.repo.SetStatus(ctx, assetID, StatusActive); err != nil {
		return nil, fmt.Errorf("activate asset: %w", err)
	}
	asset.Status = StatusActive
	return asset, nil
}

// Delete removes the object and its metadata row.
func (s *Service) Delete(ctx context.Context, assetID id.ID) error {
	asset, err := s.get(ctx, assetID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, asset.ObjectKey); err != nil {
		return fmt.Errorf("delete stored object: %w", err)
	}
	if err := s.repo.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("delete asset row: %w", err)
	}
	logger.Info(ctx, "file asset deleted", "asset_id", assetID, "object_key", asset.ObjectKey)
	return nil
}

// Get retrieves an asset after an agency-scope check.
func (s *Service) Get(ctx context.Context, assetID id.ID) (*Asset, error) {
	return s.get(ctx, assetID)
}

func (s *Service) get(ctx context.Context, assetID id.ID) (*Asset, error) {
	asset, err := s.repo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	agencyID := appctx.GetAgencyID(ctx)
	if agencyID != "" && asset.AgencyID != agencyID {
		return nil, apperror.NewForbidden("file asset belongs to another agency").
			WithDetail("asset_id", assetID)
	}
	return asset, nil
}

// collectExpired drops pending rows older than the TTL so abandoned
// uploads stop reserving quota. Object deletion failures are logged but do
// not block the new upload.
func (s *Service) collectExpired(ctx context.Context, agencyID string) error {
	cutoff := time.Now().UTC().Add(-PendingTTL)
	expired, err := s.repo.ExpiredPending(ctx, agencyID, cutoff)
	if err != nil {
		return fmt.Errorf("list expired pending assets: %w", err)
	}
	for _, asset := range expired {
		if err := s.store.Delete(ctx, asset.ObjectKey); err != nil {
			logger.Warn(ctx, "failed to delete expired object", "object_key", asset.ObjectKey, "error", err)
		}
		if err := s.repo.Delete(ctx, asset.ID); err != nil {
			return fmt.Errorf("delete expired asset row: %w", err)
		}
	}
	if len(expired) > 0 {
		logger.Info(ctx, "expired pending uploads collected", "count", len(expired))
	}
	return nil
}
