package cli

import (
	"context"
	"os"
)

func (a *App) Signup(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username (optional)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Choose a password")
	if err != nil {
		return err
	}

	user, err := a.api.Signup(ctx, email, password, username)
	if err != nil {
		printlnFn("Signup failed:", err)
		return err
	}

	a.rememberUser(user.ID, user.Username, user.Email)
	printlnFn("Welcome,", displayName(user.Username, user.Email))
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}

	user, err := a.api.Login(ctx, email, password)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}

	a.rememberUser(user.ID, user.Username, user.Email)
	printlnFn("Logged in as", displayName(user.Username, user.Email))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout(ctx)
	if err := clearSession(a.stateDir); err != nil {
		a.log.Warn(ctx, "clearing saved session", "error", err)
	}
	a.setUser("", "")
	printlnFn("Logged out.")
	return nil
}

// rememberUser persists the current tokens so the session survives restarts.
func (a *App) rememberUser(id, username, email string) {
	a.setUser(id, displayName(username, email))
	access, refresh := a.api.Tokens()
	s := &session{
		UserID:       id,
		Email:        email,
		Username:     username,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if err := saveSession(a.stateDir, s); err != nil {
		a.log.Warn(context.Background(), "saving session", "error", err)
	}
}
