// Package scheduler implements the daily morning digest: a cron job in the
// reference timezone that greets every provisioned user with today's event
// count through the chat channel.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lanatodoo/lana/pkg/lana/assistant"
	"github.com/lanatodoo/lana/pkg/lana/channels"
	"github.com/lanatodoo/lana/pkg/lana/store"
)

// Digest runs the morning greeting job.
type Digest struct {
	cfg       assistant.SchedulerConfig
	assistant *assistant.Assistant
	channel   channels.Channel
	logger    *slog.Logger
	cron      *cron.Cron
	ctx       context.Context
}

// New creates the digest over the shared pipeline and chat channel.
func New(cfg assistant.SchedulerConfig, a *assistant.Assistant, ch channels.Channel, logger *slog.Logger) *Digest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Digest{
		cfg:       cfg,
		assistant: a,
		channel:   ch,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start registers the cron entry and begins the schedule.
func (d *Digest) Start(ctx context.Context) error {
	if !d.cfg.Enabled {
		d.logger.Info("morning digest disabled")
		return nil
	}
	spec := d.cfg.MorningDigest
	if spec == "" {
		spec = "0 8 * * *"
	}

	d.ctx = ctx
	d.cron = cron.New(cron.WithLocation(d.assistant.Location()))
	if _, err := d.cron.AddFunc(spec, d.run); err != nil {
		return fmt.Errorf("scheduling morning digest: %w", err)
	}
	d.cron.Start()
	d.logger.Info("morning digest scheduled", "spec", spec)
	return nil
}

// Stop halts the schedule, waiting for a running job to finish.
func (d *Digest) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
		d.logger.Info("morning digest stopped")
	}
}

// run sends the greeting to every user with notifications enabled.
func (d *Digest) run() {
	st := d.assistant.Store()
	doc, err := st.Load()
	if err != nil {
		d.logger.Error("digest load failed", "error", err)
		return
	}

	now := time.Now().In(d.assistant.Location())
	for userID, user := range doc.Users {
		if !user.Settings.Notifications {
			continue
		}
		count := CountEventsOn(user, now, d.assistant.Location())
		greeting := d.assistant.MorningGreeting(d.ctx, count)

		err := d.channel.Send(d.ctx, userID, &channels.OutgoingMessage{
			Content:  greeting,
			Markdown: true,
		})
		if err != nil {
			d.logger.Warn("digest send failed", "user", userID, "error", err)
		}
	}
}

// CountEventsOn counts a user's events falling on the given day.
func CountEventsOn(user *store.UserRecord, day time.Time, loc *time.Location) int {
	y, m, d := day.In(loc).Date()
	count := 0
	for _, e := range user.Events {
		when, ok := assistant.ParseWhen(e.Date, loc)
		if !ok {
			continue
		}
		ey, em, ed := when.In(loc).Date()
		if ey == y && em == m && ed == d {
			count++
		}
	}
	return count
}
