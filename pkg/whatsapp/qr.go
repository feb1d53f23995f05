package whatsapp

import (
	"fmt"
	"os"

	"github.com/mdp/qrterminal"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/term"

	"wasend/pkg/tools"
)

const qrRefSelector = "div[data-ref]"

// promptScan tells the user to log in. Headful runs just point at the browser
// window; headless runs pull the QR payload out of the page and re-render it
// in the terminal, refreshing whenever WhatsApp rotates the code.
func (ws *WebSender) promptScan() {
	if !ws.headless {
		if ws.qrPrompted {
			return
		}
		ws.qrPrompted = true
		fmt.Fprintln(os.Stderr, "Scan the QR code in the browser window with WhatsApp on your phone.")
		return
	}

	payload, err := ws.qrPayload()
	if err != nil {
		ws.logger.Debug().Err(err).Msg("could not extract login QR")
		if !ws.qrPrompted {
			ws.qrPrompted = true
			fmt.Fprintln(os.Stderr, "A login QR is showing but could not be decoded; run again without --headless to scan it.")
		}
		return
	}

	if payload == ws.lastQR {
		return
	}
	ws.lastQR = payload
	ws.renderQR(payload)
}

// qrPayload extracts the login token encoded in the QR. WhatsApp keeps the
// raw token in the container's data-ref attribute; if that markup is gone,
// fall back to screenshotting the QR element and decoding the pixels.
func (ws *WebSender) qrPayload() (string, error) {
	ref, err := ws.page.Locator(qrRefSelector).First().GetAttribute("data-ref", playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(1000),
	})
	if err == nil && ref != "" {
		return ref, nil
	}

	for _, selector := range qrCodeSelectors {
		element := ws.page.Locator(selector).First()
		visible, err := element.IsVisible()
		if err != nil || !visible {
			continue
		}

		shot, err := element.Screenshot()
		if err != nil {
			ws.logger.Debug().Err(err).Str("selector", selector).Msg("failed to screenshot QR element")
			continue
		}

		payload, err := tools.DecodeQRImage(shot)
		if err != nil {
			ws.logger.Debug().Err(err).Str("selector", selector).Msg("failed to decode QR element")
			continue
		}
		return payload, nil
	}

	return "", fmt.Errorf("no decodable QR element on the page")
}

func (ws *WebSender) renderQR(payload string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "A login QR is showing; run in a terminal (or without --headless) to scan it.")
		return
	}

	fmt.Println("Scan this QR code with WhatsApp on your phone:")
	qrterminal.GenerateHalfBlock(payload, qrterminal.L, os.Stdout)
	fmt.Println()
}
