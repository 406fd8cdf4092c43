package cli

import (
	"context"
	"os"
	"strconv"
)

func (a *App) SetUsername(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "New username", os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.api.ChangeUsername(ctx, "", username)
	if err != nil {
		printlnFn("Change failed:", err)
		return err
	}

	a.rememberUser(user.ID, user.Username, user.Email)
	printlnFn("Username updated.")
	return nil
}

func (a *App) SetPassword(ctx context.Context) error {
	current, err := GetPassword(os.Stdout, "Current password (empty if none)")
	if err != nil {
		return err
	}
	next, err := GetPassword(os.Stdout, "New password")
	if err != nil {
		return err
	}

	if _, err := a.api.ChangePassword(ctx, "", current, next); err != nil {
		printlnFn("Change failed:", err)
		return err
	}

	printlnFn("Password updated.")
	return nil
}

func (a *App) SetLanguage(ctx context.Context) error {
	raw, err := GetSimpleText(a.reader, "Language code (number)", os.Stdout)
	if err != nil {
		return err
	}
	lang, err := strconv.Atoi(raw)
	if err != nil {
		printlnFn("Language must be a number.")
		return err
	}

	if _, err := a.api.ChangeLanguage(ctx, "", lang); err != nil {
		printlnFn("Change failed:", err)
		return err
	}

	printlnFn("Language updated.")
	return nil
}
