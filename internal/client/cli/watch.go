package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/paperstand/internal/client/api"
)

// Watch starts the websocket listener in the background. Status updates are
// printed as they arrive. A second invocation is a no-op.
func (a *App) Watch(ctx context.Context) error {
	a.mu.Lock()
	if a.watching {
		a.mu.Unlock()
		printlnFn("Already watching.")
		return nil
	}

	l := api.NewListener(a.api, a.config.WSURL(), printFrame, a.log)
	a.listener = l
	a.watching = true
	a.mu.Unlock()

	go func() {
		err := l.Run(ctx)
		a.mu.Lock()
		a.watching = false
		a.listener = nil
		a.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			printlnFn("Watch stopped:", err)
		}
	}()

	printlnFn("Watching for status updates.")
	return nil
}

// Status asks the server for a paper's current status over the watch
// connection. The answer arrives as a regular frame.
func (a *App) Status(ctx context.Context, paperID string) error {
	a.mu.Lock()
	l := a.listener
	a.mu.Unlock()

	if l == nil {
		printlnFn("Not watching. Run 'watch' first.")
		return nil
	}
	if err := l.RequestStatus(paperID); err != nil {
		printlnFn("Status request failed:", err)
		return err
	}
	return nil
}

func printFrame(f api.Frame) {
	switch {
	case f.Type == api.FrameTypeError:
		printlnFn("Server:", f.Message)
	case f.PaperID != "":
		name := f.PaperID
		if f.Title != "" {
			name = f.Title
		}
		line := fmt.Sprintf("Paper %q is now %s", name, f.Status)
		if f.ErrorMessage != "" {
			line += " [" + f.ErrorMessage + "]"
		}
		printlnFn(line)
	}
}
