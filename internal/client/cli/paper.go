package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avolkov/paperstand/internal/client/api"
)

func (a *App) Upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Cannot read file:", err)
		return err
	}

	printlnFn("Uploading", filepath.Base(path), "...")
	paperID, err := a.api.UploadPaper(ctx, filepath.Base(path), data)
	if err != nil {
		printlnFn("Upload failed:", err)
		return err
	}

	printlnFn("Uploaded. Paper ID:", paperID)
	printlnFn("Run 'watch' to follow its processing status.")
	return nil
}

func (a *App) Library(ctx context.Context) error {
	var token string
	page := 1
	for {
		lp, err := a.api.LoadLibrary(ctx, api.LibraryQuery{Limit: 20, NextToken: token})
		if err != nil {
			printlnFn("Library load failed:", err)
			return err
		}
		if page == 1 && len(lp.Items) == 0 {
			printlnFn("Your library is empty. Use 'upload <path>' to add a paper.")
			return nil
		}
		for _, p := range lp.Items {
			title := p.Title
			if title == "" {
				title = "(untitled)"
			}
			line := fmt.Sprintf("%s  %-10s  %s", p.ID, p.Status, title)
			if p.Status == "failed" && p.ErrorMessage != "" {
				line += "  [" + p.ErrorMessage + "]"
			}
			printlnFn(line)
		}
		if !lp.HasMore {
			printlnFn(fmt.Sprintf("%d paper(s) total", lp.Total))
			return nil
		}
		token = lp.NextToken
		page++
	}
}
