package main

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestStopCron_IdleSchedulersStop(t *testing.T) {
	a, b := cron.New(), cron.New()
	if _, err := a.AddFunc("@every 1h", func() {}); err != nil {
		t.Fatal(err)
	}
	a.Start()
	b.Start()

	done := make(chan struct{})
	go func() {
		stopCron(context.Background(), a, b)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stopCron did not return for idle schedulers")
	}
}

func TestStopCron_GivesUpWhenContextExpires(t *testing.T) {
	c := cron.New(cron.WithSeconds())
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	if _, err := c.AddFunc("* * * * * *", func() {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}); err != nil {
		t.Fatal(err)
	}
	c.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		stopCron(ctx, c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stopCron ignored the shutdown deadline")
	}
}
