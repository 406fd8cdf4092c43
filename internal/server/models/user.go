// Package models defines server-side data models persisted in the database.
package models

import "time"

// Languages a user can pick for generated summaries. Stored as a small int.
const (
	LanguageEnglish  = 1
	LanguageKorean   = 2
	LanguageJapanese = 3
	LanguageChinese  = 4
)

// User is an account holder. PasswordHash is empty for social sign-in
// accounts until the user sets a password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Username     string
	AvatarKey    string
	Language     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns the projection of the user safe to return to API
// callers: the credential hash is never included.
func (u *User) Sanitized() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"username":    u.Username,
		"avatarKey":   u.AvatarKey,
		"language":    u.Language,
		"hasPassword": u.PasswordHash != "",
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
	}
}

// ValidLanguage reports whether code is one of the supported languages.
func ValidLanguage(code int) bool {
	return code >= LanguageEnglish && code <= LanguageChinese
}
