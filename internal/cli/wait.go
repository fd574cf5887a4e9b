package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rohitmondal03/amplication/internal/appctx"
	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/query"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// currentProject returns the configured project, or nil.
func (c *cmdContext) currentProject() *models.Project {
	if c.Config.ProjectID == "" {
		return nil
	}
	return &models.Project{ID: c.Config.ProjectID}
}

// newProvider creates the application context for the configured project.
func (c *cmdContext) newProvider() *appctx.Provider {
	return appctx.NewProvider(appctx.State{CurrentProject: c.currentProject()}, c.Logger)
}

// requireProject exits unless a project is configured.
func (c *cmdContext) requireProject() {
	if c.Config.ProjectID == "" {
		exitError("no project selected (set project_id, %s or --project)", "AMP_PROJECT_ID")
	}
}

// settled reports whether the first fetch of v has finished.
func settled(v *lastcommit.View) bool {
	s := v.Result().Status
	return s == query.StatusSuccess || s == query.StatusError
}

// waitForView blocks until the first fetch of v finished or ctx is done.
func waitForView(ctx context.Context, v *lastcommit.View) error {
	ready := make(chan struct{}, 1)
	unsubscribe := v.Subscribe(func() {
		if settled(v) {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if settled(v) {
		return nil
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
