package whatsapp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Selectors probed on WhatsApp Web. The markup changes between rollouts, so
// several generations of each element are tried.
const sendButtonSelector = "span[data-icon='send']"

var (
	composeBoxSelectors = []string{
		"div[data-testid='conversation-compose-box-input']",
		"div[contenteditable='true'][data-tab='10']",
		"div[contenteditable='true'][data-tab='6']",
	}
	qrCodeSelectors = []string{
		"div[data-testid='qrcode']",
		"canvas[aria-label*='Scan']",
	}
	sentTickSelectors = []string{
		"span[data-icon='msg-check']",
		"span[data-icon='msg-dblcheck']",
		"span[data-icon='msg-dblcheck-ack']",
	}
)

// ChatURL builds the WhatsApp Web deep link that opens a chat with the number
// and pre-fills the message.
func ChatURL(number, message string) string {
	// Match urllib-style encoding: spaces as %20, not +.
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://web.whatsapp.com/send?phone=%s&text=%s", number, encoded)
}

// Send opens the chat for the number, waits for WhatsApp Web to be usable,
// and submits the message. It returns once the message shows a sent tick or
// a timeout elapses.
func (ws *WebSender) Send(ctx context.Context, number, message string) error {
	message, err := sanitizeMessage(message)
	if err != nil {
		return err
	}

	target := ChatURL(number, message)
	ws.logger.Debug().Str("url", target).Msg("opening chat")
	if _, err := ws.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("failed to open WhatsApp Web, try clearing the session with --clear: %w", err)
	}

	if err := ws.waitUntilReady(ctx); err != nil {
		return err
	}

	if err := ws.submitMessage(message); err != nil {
		return err
	}

	if err := ws.confirmSent(ctx); err != nil {
		return err
	}

	// Let the page flush the outbox before Close tears the browser down.
	time.Sleep(settleDelay)
	return nil
}

func (ws *WebSender) waitUntilReady(ctx context.Context) error {
	return waitForLogin(ctx, ws, waitConfig{
		Timeout:   ws.timeout,
		Interval:  pollInterval,
		Heartbeat: heartbeatEvery,
		OnQR:      ws.promptScan,
		OnHeartbeat: func(waited time.Duration) {
			ws.logger.Info().Dur("waited", waited.Round(time.Second)).Msg("still waiting for WhatsApp Web")
		},
	})
}

// sendReady reports whether the chat UI can take a message: either the send
// button for a URL-prefilled draft or any known compose box is visible.
func (ws *WebSender) sendReady() (bool, error) {
	selectors := append([]string{sendButtonSelector}, composeBoxSelectors...)
	return ws.anyVisible(selectors), nil
}

// qrVisible reports whether the login QR is on screen.
func (ws *WebSender) qrVisible() (bool, error) {
	return ws.anyVisible(qrCodeSelectors), nil
}

// anyVisible probes the selectors without waiting. Probe errors count as not
// visible: the page reloads right after a QR scan, and a probe racing that
// navigation must not abort the wait loop.
func (ws *WebSender) anyVisible(selectors []string) bool {
	for _, selector := range selectors {
		visible, err := ws.page.Locator(selector).First().IsVisible()
		if err != nil {
			ws.logger.Debug().Err(err).Str("selector", selector).Msg("probe failed")
			continue
		}
		if visible {
			return true
		}
	}
	return false
}

func (ws *WebSender) findComposeBox() playwright.Locator {
	for _, selector := range composeBoxSelectors {
		box := ws.page.Locator(selector).First()
		if visible, err := box.IsVisible(); err == nil && visible {
			return box
		}
	}
	return nil
}

func (ws *WebSender) submitMessage(message string) error {
	box := ws.findComposeBox()
	if box == nil {
		// No compose box, but the URL prefill may have left a ready draft we
		// can fire with the send button.
		send := ws.page.Locator(sendButtonSelector).First()
		visible, err := send.IsVisible()
		if err != nil || !visible {
			return fmt.Errorf("could not find the message compose box")
		}
		if err := send.Click(); err != nil {
			return fmt.Errorf("failed to click send button: %w", err)
		}
		return nil
	}

	if err := box.Click(); err != nil {
		return fmt.Errorf("failed to focus compose box: %w", err)
	}

	current, err := box.InnerText()
	if err != nil {
		current = ""
	}
	if strings.TrimSpace(current) == "" {
		// The URL prefill did not land, type the message ourselves.
		if err := ws.typeMessage(box, message); err != nil {
			return err
		}
	}

	if err := ws.page.Keyboard().Press("Enter"); err != nil {
		return fmt.Errorf("failed to press enter: %w", err)
	}
	return nil
}

// typeMessage types the message into the compose box, inserting Shift+Enter
// between lines so embedded newlines do not fire the message early.
func (ws *WebSender) typeMessage(box playwright.Locator, message string) error {
	parts := strings.Split(message, "\n")
	for i, part := range parts {
		if err := box.PressSequentially(part); err != nil {
			return fmt.Errorf("failed to type message: %w", err)
		}
		if i < len(parts)-1 {
			if err := box.Press("Shift+Enter"); err != nil {
				return fmt.Errorf("failed to insert line break: %w", err)
			}
		}
	}
	return nil
}

// confirmSent polls the chat for a message status tick. WhatsApp shows a
// clock while the message is still queued locally.
func (ws *WebSender) confirmSent(ctx context.Context) error {
	deadline := time.Now().Add(confirmTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, selector := range sentTickSelectors {
			visible, err := ws.page.Locator(selector).Last().IsVisible()
			if err != nil {
				continue
			}
			if visible {
				return nil
			}
		}

		time.Sleep(confirmInterval)
	}

	return fmt.Errorf("message was not confirmed sent within %s", confirmTimeout)
}

// sanitizeMessage forces the message into valid UTF-8 before it reaches the
// keyboard API.
func sanitizeMessage(message string) (string, error) {
	if !utf8.ValidString(message) {
		message = strings.ToValidUTF8(message, "")
	}

	encoded, _, err := transform.String(unicode.UTF8.NewEncoder(), message)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return encoded, nil
}
