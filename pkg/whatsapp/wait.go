package whatsapp

import (
	"context"
	"fmt"
	"time"
)

// loginProbe reports which state the WhatsApp Web page is in. WebSender
// implements it against the live page; tests drive the wait loop with fakes.
type loginProbe interface {
	sendReady() (bool, error)
	qrVisible() (bool, error)
}

type waitConfig struct {
	Timeout   time.Duration
	Interval  time.Duration
	Heartbeat time.Duration

	// OnQR fires on every poll that sees the login QR, so the callback can
	// re-render rotated codes. OnHeartbeat fires at most once per Heartbeat.
	OnQR        func()
	OnHeartbeat func(waited time.Duration)
}

// waitForLogin polls the page until the chat UI is usable, the deadline
// passes, or the context is canceled. This is a bounded busy-wait: WhatsApp
// Web exposes no event for "logged in", so the page is probed at a fixed
// interval.
func waitForLogin(ctx context.Context, probe loginProbe, cfg waitConfig) error {
	start := time.Now()
	deadline := start.Add(cfg.Timeout)
	nextHeartbeat := start.Add(cfg.Heartbeat)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		ready, err := probe.sendReady()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		qr, err := probe.qrVisible()
		if err != nil {
			return err
		}
		if qr && cfg.OnQR != nil {
			cfg.OnQR()
		}

		if cfg.Heartbeat > 0 && !time.Now().Before(nextHeartbeat) {
			if cfg.OnHeartbeat != nil {
				cfg.OnHeartbeat(time.Since(start))
			}
			nextHeartbeat = time.Now().Add(cfg.Heartbeat)
		}

		time.Sleep(cfg.Interval)
	}

	return fmt.Errorf("timed out waiting for WhatsApp Web after %s", cfg.Timeout)
}
