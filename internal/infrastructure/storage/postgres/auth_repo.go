package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/auth"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *TxManager
	cols      []string
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[auth.User](),
	}
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("users").
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var user auth.User
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by agency and email.
func (r *UserRepo) GetByEmail(ctx context.Context, agencyID, email string) (*auth.User, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("users").
		Where(squirrel.Eq{"agency_id": agencyID, "email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var user auth.User
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Exists reports whether an email is taken within the agency.
func (r *UserRepo) Exists(ctx context.Context, agencyID, email string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE agency_id = $1 AND email = $2)`,
		agencyID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Create inserts a user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().
		Insert("users").
		SetMap(StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update overwrites a user row.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	data := StructToMap(user)
	delete(data, "id")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	sql, args, err := builder().
		Update("users").
		SetMap(data).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID)
	}
	return nil
}

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *TxManager
	cols      []string
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo creates a new refresh token repository.
func NewTokenRepo(txManager *TxManager) *TokenRepo {
	return &TokenRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[auth.RefreshToken](),
	}
}

// SaveRefreshToken inserts a token row.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	sql, args, err := builder().
		Insert("refresh_tokens").
		SetMap(StructToMap(token)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken finds a token by its hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("refresh_tokens").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var token auth.RefreshToken
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &token, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("refresh token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now(), revoke_reason = $1 WHERE id = $2 AND revoked_at IS NULL`,
		reason, tokenID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every live token of a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now(), revoke_reason = $1 WHERE user_id = $2 AND revoked_at IS NULL`,
		reason, userID)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
