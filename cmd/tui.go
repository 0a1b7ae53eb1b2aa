package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/tunemerge/tunemerge/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	sourceProvider := cmd.String("from")
	targetProvider := cmd.String("to")

	source, err := r.resolveProvider(sourceProvider)
	if err != nil {
		return err
	}
	if _, err := r.resolveProvider(targetProvider); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tunemerge-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.syncEngine()
	if err != nil {
		return err
	}
	manager, err := r.authManager()
	if err != nil {
		return err
	}

	cred, err := manager.ValidCredential(ctx, r.userID, sourceProvider)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Source:         source,
		Credential:     cred,
		Engine:         engine,
		UserID:         r.userID,
		SourceProvider: sourceProvider,
		TargetProvider: targetProvider,
	})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
