package tools

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/image/draw"
)

// Upscale factor for the decode retry. The QR reader struggles with small
// renders, and browser element screenshots can come out tiny on scaled
// displays.
const qrUpscaleFactor = 2

// DecodeQRImage extracts the text payload from a screenshot of a QR code.
// If the decode fails at native size the image is upscaled once and retried.
func DecodeQRImage(data []byte) (string, error) {
	img, err := decodeImage(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode QR screenshot: %w", err)
	}

	payload, err := decodeQR(img)
	if err == nil {
		return payload, nil
	}

	if payload, retryErr := decodeQR(upscaleImage(img, qrUpscaleFactor)); retryErr == nil {
		return payload, nil
	}

	return "", fmt.Errorf("failed to decode QR code: %w", err)
}

// decodeImage decodes PNG or JPEG data based on magic bytes.
func decodeImage(data []byte) (image.Image, error) {
	// PNG
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return png.Decode(bytes.NewReader(data))
	}
	// JPEG
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return jpeg.Decode(bytes.NewReader(data))
	}

	// Browser screenshots are PNG, so try that as the fallback too
	return png.Decode(bytes.NewReader(data))
}

// upscaleImage scales an image up by an integer factor using bilinear
// interpolation.
func upscaleImage(img image.Image, factor int) image.Image {
	bounds := img.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

func decodeQR(img image.Image) (string, error) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bitmap, nil)
	if err != nil {
		return "", err
	}

	return result.String(), nil
}
