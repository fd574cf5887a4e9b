package cli

import (
	"context"
	"time"

	"github.com/rohitmondal03/amplication/internal/appctx"
	"github.com/rohitmondal03/amplication/internal/commitfeed"
	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/notify"
	"golang.org/x/sync/errgroup"
)

// session connects the application context to a last-commit view, the commit
// feed and the webhook notifier.
type session struct {
	provider *appctx.Provider
	view     *lastcommit.View
	feed     *commitfeed.Feed
	notifier *notify.WebhookNotifier
	unsubs   []func()
}

func newSession(c *cmdContext, resourceID string) (*session, error) {
	provider := c.newProvider()
	view, err := lastcommit.New(c.Client, lastcommit.Props{ResourceID: resourceID}, provider.State(),
		lastcommit.WithLogger(c.Logger),
	)
	if err != nil {
		return nil, err
	}

	feed := commitfeed.New(c.Client,
		commitfeed.WithLogger(c.Logger),
		commitfeed.WithCache(c.Cache),
		commitfeed.WithMinInterval(time.Duration(c.Config.PollInterval)),
	)
	feed.SetProject(provider.State().CurrentProject)

	s := &session{provider: provider, view: view, feed: feed}
	s.unsubs = append(s.unsubs, provider.Subscribe(func(st appctx.State) {
		view.Update(st)
		feed.SetProject(st.CurrentProject)
	}))

	s.notifier = notify.NewWebhookNotifier(&notify.WebhookConfig{URLs: c.Config.WebhookURLs}, c.Logger)
	if s.notifier != nil {
		tracker := notify.NewTracker()
		s.unsubs = append(s.unsubs,
			view.Subscribe(func() { s.notifier.Notify(tracker.Observe(view.Build())...) }),
			feed.Subscribe(func(snap commitfeed.Snapshot) { s.notifier.Notify(tracker.ObserveCommits(snap.Commits)...) }),
		)
		c.Logger.Info("webhooks configured", "count", len(c.Config.WebhookURLs))
	}
	return s, nil
}

// run starts the feed and the pending-changes poller, then runs ui. Everything
// stops when ui returns or ctx is cancelled.
func (s *session) run(ctx context.Context, c *cmdContext, ui func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	s.feed.Start(ctx)

	g.Go(func() error {
		s.pollPendingChanges(ctx, c, time.Duration(c.Config.PollInterval))
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return ui(ctx)
	})
	return g.Wait()
}

// pollPendingChanges keeps the pending-changes error flag current. Each flip
// refetches the view through the provider subscription.
func (s *session) pollPendingChanges(ctx context.Context, c *cmdContext, every time.Duration) {
	if s.provider.State().ProjectID() == "" {
		return
	}
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.provider.RefreshPendingChanges(ctx, c.Client); err != nil && ctx.Err() == nil {
			c.Logger.Debug("pending changes refresh failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *session) close() {
	for _, unsubscribe := range s.unsubs {
		unsubscribe()
	}
	s.feed.Close()
	s.view.Close()
	s.view.Wait()
	s.notifier.Wait()
}
