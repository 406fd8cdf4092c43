// Package services contains server-side business logic. This file implements
// UserService: signup, login, social sign-in, token refresh, and the
// profile-mutation operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/cryptox"
	"github.com/avolkov/paperstand/internal/server/auth"
	"github.com/avolkov/paperstand/internal/server/blob"
	"github.com/avolkov/paperstand/internal/server/config"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/avolkov/paperstand/internal/server/oauth"
	"github.com/avolkov/paperstand/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	usernameMinLen = 2
	usernameMaxLen = 50
	passwordMinLen = 8
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
}

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// UserService provides account and profile operations. Every mutation of a
// per-user resource takes both the authenticated subject ID and the target
// user ID and fails with common.ErrForbidden when they differ.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   blob.Presigner

	jwtSecret []byte
	cfg       *config.Config
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, presigner blob.Presigner, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		presigner:   presigner,
		jwtSecret:   []byte(cfg.SecretKey),
		cfg:         cfg,
	}
}

// Signup creates a new account with a bcrypt credential hash. Duplicate
// emails yield common.ErrConflict.
func (s *UserService) Signup(ctx context.Context, email, password, username string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if len(password) < passwordMinLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, passwordMinLen)
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		Language:     models.LanguageEnglish,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// Login verifies the credentials and mints a token pair. The error is the
// same for an unknown email and a wrong password, so callers cannot learn
// which emails exist. Social sign-in accounts without a password also fail
// with the generic error.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, common.ErrInternal
	}

	if user.PasswordHash == "" || !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token and mints a fresh access token. The
// refresh token itself is self-contained and is not rotated or stored.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, int64, error) {
	userID, err := auth.GetUserIDFromRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, "", 0, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", 0, common.ErrUnauthorized
		}
		return nil, "", 0, common.ErrInternal
	}

	access, err := auth.GenerateToken(user.ID, s.jwtSecret, s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, "", 0, common.ErrInternal
	}
	return user, access, int64(s.cfg.AccessTokenValidityDuration.Seconds()), nil
}

// SocialSignIn looks up a local account by the provider profile's email and
// creates one on first sign-in, then mints a token pair.
func (s *UserService) SocialSignIn(ctx context.Context, profile *oauth.Profile) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	email := strings.TrimSpace(strings.ToLower(profile.Email))

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrInternal
		}

		username := strings.TrimSpace(profile.Name)
		if len(username) < usernameMinLen {
			username = strings.SplitN(email, "@", 2)[0]
		}
		if len(username) > usernameMaxLen {
			username = username[:usernameMaxLen]
		}

		if taken, err := repo.UsernameTaken(ctx, username, ""); err == nil && taken {
			suffix, err := common.MakeRandHexString(3)
			if err != nil {
				return nil, nil, common.ErrInternal
			}
			username = username + "-" + suffix
		}

		user, err = repo.Create(ctx, &models.User{
			ID:       uuid.NewString(),
			Email:    email,
			Username: username,
			Language: models.LanguageEnglish,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error creating user: %w", err)
		}
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// GetUser returns the user with the given ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// ChangeUsername renames the caller's account. Renaming to the current
// username is a no-op that skips both the uniqueness scan and the write.
func (s *UserService) ChangeUsername(ctx context.Context, subjectID, targetID, username string) (*models.User, error) {
	if err := checkOwnership(subjectID, targetID); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return user, nil
	}

	taken, err := repo.UsernameTaken(ctx, username, targetID)
	if err != nil {
		return nil, common.ErrInternal
	}
	if taken {
		return nil, fmt.Errorf("%w: username is taken", common.ErrConflict)
	}

	return repo.UpdateUsername(ctx, targetID, username)
}

// ChangePassword sets a new password. The current password must match when
// one is already set; social sign-in accounts may set their first password
// without one.
func (s *UserService) ChangePassword(ctx context.Context, subjectID, targetID, currentPassword, newPassword string) (*models.User, error) {
	if err := checkOwnership(subjectID, targetID); err != nil {
		return nil, err
	}
	if len(newPassword) < passwordMinLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, passwordMinLen)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash != "" && !cryptox.CheckPassword(user.PasswordHash, currentPassword) {
		return nil, fmt.Errorf("%w: current password is incorrect", common.ErrValidation)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return nil, common.ErrInternal
	}
	return repo.UpdatePassword(ctx, targetID, hash)
}

// ChangeLanguage sets the summary language preference.
func (s *UserService) ChangeLanguage(ctx context.Context, subjectID, targetID string, language int) (*models.User, error) {
	if err := checkOwnership(subjectID, targetID); err != nil {
		return nil, err
	}
	if !models.ValidLanguage(language) {
		return nil, fmt.Errorf("%w: unsupported language code %d", common.ErrValidation, language)
	}
	return s.repomanager.Users(s.db).UpdateLanguage(ctx, targetID, language)
}

// RequestAvatarUpload issues a presigned PUT credential for a new profile
// image. MIME type and declared size are validated up front.
func (s *UserService) RequestAvatarUpload(ctx context.Context, userID, fileName, fileType string, fileSize int64) (*blob.UploadCredential, error) {
	if _, ok := allowedImageTypes[fileType]; !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", common.ErrValidation, fileType)
	}
	if fileSize <= 0 || fileSize > common.MaxProfileImageSize {
		return nil, fmt.Errorf("%w: image size must be between 1 byte and %d bytes", common.ErrValidation, common.MaxProfileImageSize)
	}

	key := fmt.Sprintf("users/%s/profile/%s-%s", userID, uuid.NewString(), sanitizeFileName(fileName))

	cred, err := s.presigner.PresignPut(ctx, key, fileType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	return cred, nil
}

// ConfirmAvatar records fileKey as the user's profile image. The key must
// live under the caller's own namespace.
func (s *UserService) ConfirmAvatar(ctx context.Context, userID, fileKey string) (*models.User, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: fileKey is required", common.ErrValidation)
	}
	if !strings.HasPrefix(fileKey, fmt.Sprintf("users/%s/", userID)) {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, fileKey)
}

// --- helpers below ---

func (s *UserService) generateTokenPair(userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := auth.GenerateRefreshToken(userID, s.jwtSecret, s.cfg.RefreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenValidityDuration.Seconds()),
	}, nil
}

// checkOwnership compares the token subject against the target owner.
// Both sides are trimmed because identifiers may arrive as quoted strings
// or carry whitespace from form decoding.
func checkOwnership(subjectID, ownerID string) error {
	if strings.TrimSpace(subjectID) != strings.TrimSpace(ownerID) {
		return common.ErrForbidden
	}
	return nil
}

func validateUsername(username string) error {
	if n := len([]rune(username)); n < usernameMinLen || n > usernameMaxLen {
		return fmt.Errorf("%w: username must be %d-%d characters", common.ErrValidation, usernameMinLen, usernameMaxLen)
	}
	return nil
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}
