package dto

import (
	"backoffice/internal/domain/files"
)

// SignUploadRequest reserves quota and requests a signed upload URL.
// Exactly one owner reference must be set, checked by the domain service.
type SignUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	SizeBytes   int64  `json:"sizeBytes" binding:"required,min=1"`

	BookingID *string `json:"bookingId"`
	ClientID  *string `json:"clientId"`
	ServiceID *string `json:"serviceId"`
}

// ToAsset converts to a domain asset.
func (r *SignUploadRequest) ToAsset() (*files.Asset, error) {
	asset := &files.Asset{
		FileName:    r.FileName,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
	}

	var err error
	if asset.BookingID, err = parseOptionalID(r.BookingID, "bookingId"); err != nil {
		return nil, err
	}
	if asset.ClientID, err = parseOptionalID(r.ClientID, "clientId"); err != nil {
		return nil, err
	}
	if asset.ServiceID, err = parseOptionalID(r.ServiceID, "serviceId"); err != nil {
		return nil, err
	}
	return asset, nil
}

// CompleteUploadRequest confirms the client finished the upload.
type CompleteUploadRequest struct {
	AssetID string `json:"assetId" binding:"required,uuid"`
}
