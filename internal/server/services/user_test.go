package services

import (
	"context"
	"testing"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/server/blob"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/avolkov/paperstand/internal/server/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, *fakeRepoManager, *blob.MemoryPresigner) {
	t.Helper()
	m := newFakeRepoManager()
	p := blob.NewMemoryPresigner()
	return NewUserService(nil, m, p, testConfig()), m, p
}

func TestSignup(t *testing.T) {
	s, m, _ := newTestUserService(t)
	ctx := context.Background()

	user, err := s.Signup(ctx, "Alice@Example.com ", "correct-horse", "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.LanguageEnglish, user.Language)
	assert.NotEmpty(t, user.ID)

	stored := m.u.users[user.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestSignupValidation(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		username string
	}{
		{"bad email", "not-an-email", "correct-horse", "alice"},
		{"short password", "a@example.com", "short", "alice"},
		{"short username", "a@example.com", "correct-horse", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Signup(ctx, tt.email, tt.password, tt.username)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	_, err = s.Signup(ctx, "alice@example.com", "correct-horse", "alice2")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLogin(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	user, pair, err := s.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	_, _, errWrongPassword := s.Login(ctx, "alice@example.com", "wrong-password")
	_, _, errUnknownEmail := s.Login(ctx, "nobody@example.com", "correct-horse")

	assert.ErrorIs(t, errWrongPassword, common.ErrUnauthorized)
	assert.ErrorIs(t, errUnknownEmail, common.ErrUnauthorized)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLoginSocialAccountWithoutPassword(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, _, err := s.SocialSignIn(ctx, &oauth.Profile{Email: "bob@example.com", Name: "Bob"})
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "bob@example.com", "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)
	_, pair, err := s.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	user, access, expiresIn, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, access)
	assert.Equal(t, int64(3600), expiresIn)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)
	_, pair, err := s.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	_, _, _, err = s.Refresh(ctx, pair.AccessToken)
	assert.Error(t, err)
}

func TestSocialSignInCreatesOnce(t *testing.T) {
	s, m, _ := newTestUserService(t)
	ctx := context.Background()

	profile := &oauth.Profile{Email: "Carol@Example.com", Name: "Carol"}

	first, _, err := s.SocialSignIn(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", first.Email)
	assert.Empty(t, first.PasswordHash)

	second, _, err := s.SocialSignIn(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, m.u.users, 1)
}

func TestChangeUsername(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	user, err := s.ChangeUsername(ctx, created.ID, created.ID, "alice-v2")
	require.NoError(t, err)
	assert.Equal(t, "alice-v2", user.Username)
}

func TestChangeUsernameForbidden(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	_, err = s.ChangeUsername(ctx, "someone-else", created.ID, "alice-v2")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestChangeUsernameNoOpSkipsScanAndWrite(t *testing.T) {
	s, m, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	scansBefore := m.u.usernameScanCalls
	writesBefore := m.u.updateCalls

	user, err := s.ChangeUsername(ctx, created.ID, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, scansBefore, m.u.usernameScanCalls)
	assert.Equal(t, writesBefore, m.u.updateCalls)
}

func TestChangeUsernameTaken(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)
	bob, err := s.Signup(ctx, "bob@example.com", "correct-horse", "bob")
	require.NoError(t, err)

	_, err = s.ChangeUsername(ctx, bob.ID, bob.ID, "alice")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestChangePassword(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	_, err = s.ChangePassword(ctx, created.ID, created.ID, "correct-horse", "battery-staple")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "alice@example.com", "battery-staple")
	assert.NoError(t, err)
	_, _, err = s.Login(ctx, "alice@example.com", "correct-horse")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	_, err = s.ChangePassword(ctx, created.ID, created.ID, "wrong", "battery-staple")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestChangePasswordFirstPasswordForSocialAccount(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	user, _, err := s.SocialSignIn(ctx, &oauth.Profile{Email: "carol@example.com", Name: "Carol"})
	require.NoError(t, err)

	_, err = s.ChangePassword(ctx, user.ID, user.ID, "", "battery-staple")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "carol@example.com", "battery-staple")
	assert.NoError(t, err)
}

func TestChangeLanguage(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	user, err := s.ChangeLanguage(ctx, created.ID, created.ID, models.LanguageKorean)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageKorean, user.Language)

	_, err = s.ChangeLanguage(ctx, created.ID, created.ID, 99)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRequestAvatarUpload(t *testing.T) {
	s, _, p := newTestUserService(t)
	ctx := context.Background()

	cred, err := s.RequestAvatarUpload(ctx, "u1", "me.png", "image/png", 1024)
	require.NoError(t, err)
	assert.Equal(t, "PUT", cred.Method)
	assert.Contains(t, cred.Key, "users/u1/profile/")
	assert.Len(t, p.Issued, 1)
}

func TestRequestAvatarUploadValidation(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := s.RequestAvatarUpload(ctx, "u1", "me.pdf", "application/pdf", 1024)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.RequestAvatarUpload(ctx, "u1", "me.png", "image/png", common.MaxProfileImageSize+1)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestConfirmAvatar(t *testing.T) {
	s, _, _ := newTestUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "alice@example.com", "correct-horse", "alice")
	require.NoError(t, err)

	key := "users/" + created.ID + "/profile/abc-me.png"
	user, err := s.ConfirmAvatar(ctx, created.ID, key)
	require.NoError(t, err)
	assert.Equal(t, key, user.AvatarKey)

	_, err = s.ConfirmAvatar(ctx, created.ID, "users/someone-else/profile/x.png")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestSanitizedOmitsCredential(t *testing.T) {
	u := &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash"}
	out := u.Sanitized()
	_, hasPlain := out["password"]
	_, hasHash := out["passwordHash"]
	assert.False(t, hasPlain)
	assert.False(t, hasHash)
	assert.Equal(t, true, out["hasPassword"])
}
