package generation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
)

const (
	staticProviderName   = "static"
	staticMaxDimension   = 1024
	staticDefaultSide    = 512
	staticTextPreviewLen = 200
)

// StaticProvider is a deterministic offline provider. The same request always
// yields the same text and the same PNG. It backs local development without
// API keys and keeps tests hermetic.
type StaticProvider struct{}

// NewStaticProvider creates a StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Name returns "static".
func (p *StaticProvider) Name() string {
	return staticProviderName
}

// GenerateText echoes a short, seeded summary of the prompt.
func (p *StaticProvider) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return "", err
	}

	seed := promptSeed(req.SystemPrompt, req.Prompt)
	preview := strings.Join(strings.Fields(req.Prompt), " ")
	if r := []rune(preview); len(r) > staticTextPreviewLen {
		preview = string(r[:staticTextPreviewLen])
	}
	return fmt.Sprintf("[draft %s] %s", seed[:8], preview), nil
}

// GenerateImage renders striped PNGs whose colours derive from the prompt.
func (p *StaticProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}

	width, height := parseSize(req.Size)
	images := make([]Image, 0, req.Count())
	for i := 0; i < req.Count(); i++ {
		data, err := renderImage(width, height, promptSeed(req.Prompt, strconv.Itoa(i)))
		if err != nil {
			return nil, fmt.Errorf("%w: render image: %v", ErrGenerationFailed, err)
		}
		images = append(images, Image{
			Data:     data,
			MIMEType: "image/png",
			Provider: staticProviderName,
		})
	}
	return images, nil
}

func promptSeed(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// parseSize reads WIDTHxHEIGHT, clamping each side to staticMaxDimension.
func parseSize(size string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return staticDefaultSide, staticDefaultSide
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return staticDefaultSide, staticDefaultSide
	}
	return min(width, staticMaxDimension), min(height, staticMaxDimension)
}

func renderImage(width, height int, seed string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFromSeed(seed, 0)}, image.Point{}, draw.Src)

	accent := &image.Uniform{colorFromSeed(seed, 1)}
	stripe := max(16, height/12)
	for y := 0; y < height; y += stripe * 2 {
		draw.Draw(img, image.Rect(0, y, width, min(height, y+stripe)), accent, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// colorFromSeed reads three bytes of the hex seed starting at shift*6.
func colorFromSeed(seed string, shift int) color.RGBA {
	start := (shift * 6) % (len(seed) - 6)
	b, err := hex.DecodeString(seed[start : start+6])
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 255}
}
