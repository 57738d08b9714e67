// File: internal/browser/stealth/stealth.go
package stealth

import (
	"context"
	_ "embed" // Required for the go:embed directive
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

// ScreenProperties defines the resolution of the spoofed display.
type ScreenProperties struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Persona defines a consistent browser profile to be spoofed. The portal
// serves an Indonesian audience, so the default persona reports Indonesian
// languages, locale, and timezone.
type Persona struct {
	UserAgent string   `json:"userAgent"`
	Platform  string   `json:"platform"` // Legacy JS navigator.platform (e.g. Win32)
	Languages []string `json:"languages"`

	TimezoneID string           `json:"timezoneId,omitempty"`
	Locale     string           `json:"locale,omitempty"`
	Screen     ScreenProperties `json:"screen"`

	HardwareConcurrency int `json:"hardwareConcurrency,omitempty"`
	DeviceMemory        int `json:"deviceMemory,omitempty"`
}

// DefaultPersona returns the profile applied when none is configured.
func DefaultPersona() Persona {
	return Persona{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Platform:  "Win32",
		Languages: []string{"id-ID", "id", "en-US", "en"},

		TimezoneID: "Asia/Jakarta",
		Locale:     "id-ID",
		Screen:     ScreenProperties{Width: 1280, Height: 800},

		HardwareConcurrency: 8,
		DeviceMemory:        8,
	}
}

// Apply orchestrates the stealth actions using chromedp.Tasks for sequential execution.
func Apply(persona Persona, logger *zap.Logger) chromedp.Action {
	l := logger.Named("stealth")
	return chromedp.Tasks{
		// 1. Network configuration
		network.Enable(),
		setExtraHTTPHeaders(persona, l),

		// 2. Core emulation overrides
		setUserAgent(persona, l),
		setDeviceMetrics(persona, l),
		setEnvironmentOverrides(persona, l),

		// 3. JS environment modification
		injectEvasionScript(persona, l),

		// 4. Lifecycle management
		page.SetWebLifecycleState(page.SetWebLifecycleStateStateActive),

		chromedp.ActionFunc(func(ctx context.Context) error {
			l.Debug("Stealth profile applied successfully", zap.String("UserAgent", persona.UserAgent))
			return nil
		}),
	}
}

// injectEvasionScript registers the JS evasion script to run on every new document.
func injectEvasionScript(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		personaJSON, err := json.Marshal(persona)
		if err != nil {
			logger.Error("Failed to marshal persona configuration", zap.Error(err))
			return fmt.Errorf("stealth: failed to marshal persona: %w", err)
		}

		scriptWithPersona := fmt.Sprintf(
			"const LHKPN_PERSONA = %s;\n%s",
			string(personaJSON),
			evasionsScript,
		)

		if _, err = page.AddScriptToEvaluateOnNewDocument(scriptWithPersona).Do(ctx); err != nil {
			logger.Error("Failed to register evasion script with CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to add script on new document: %w", err)
		}
		return nil
	})
}

// setUserAgent configures the UserAgent, platform and accept language.
func setUserAgent(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		err := emulation.SetUserAgentOverride(persona.UserAgent).
			WithPlatform(persona.Platform).
			WithAcceptLanguage(strings.Join(persona.Languages, ",")).
			Do(ctx)
		if err != nil {
			logger.Error("Failed to set UserAgent override via CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to set user agent override: %w", err)
		}
		return nil
	})
}

// setExtraHTTPHeaders configures a q-weighted Accept-Language header matching
// the persona's language list.
func setExtraHTTPHeaders(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(persona.Languages) == 0 {
			return nil
		}
		formatted := persona.Languages[0]
		for i := 1; i < len(persona.Languages); i++ {
			q := 1.0 - float64(i)*0.1
			if q < 0.7 {
				q = 0.7
			}
			formatted += fmt.Sprintf(",%s;q=%.1f", persona.Languages[i], q)
		}
		headers := map[string]interface{}{"Accept-Language": formatted}
		if err := network.SetExtraHTTPHeaders(network.Headers(headers)).Do(ctx); err != nil {
			logger.Error("Failed to set extra HTTP headers via CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to set extra http headers: %w", err)
		}
		return nil
	})
}

// setDeviceMetrics configures the viewport and resolution.
func setDeviceMetrics(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if persona.Screen.Width <= 0 || persona.Screen.Height <= 0 {
			return nil
		}
		err := emulation.SetDeviceMetricsOverride(persona.Screen.Width, persona.Screen.Height, 1.0, false).
			WithScreenOrientation(&emulation.ScreenOrientation{
				Type:  emulation.OrientationTypeLandscapePrimary,
				Angle: 0,
			}).Do(ctx)
		if err != nil {
			logger.Error("Failed to set device metrics override via CDP", zap.Error(err))
			return fmt.Errorf("stealth: failed to set device metrics: %w", err)
		}
		return nil
	})
}

// setEnvironmentOverrides keeps timezone and locale consistent with the persona.
func setEnvironmentOverrides(persona Persona, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if persona.TimezoneID != "" {
			if err := emulation.SetTimezoneOverride(persona.TimezoneID).Do(ctx); err != nil {
				logger.Error("Failed to set timezone override via CDP", zap.Error(err))
				return fmt.Errorf("stealth: failed to set timezone: %w", err)
			}
		}

		locale := persona.Locale
		if locale == "" && len(persona.Languages) > 0 {
			locale = persona.Languages[0]
		}
		if locale != "" {
			normalized := strings.ReplaceAll(locale, "_", "-")
			if err := emulation.SetLocaleOverride().WithLocale(normalized).Do(ctx); err != nil {
				logger.Error("Failed to set locale override via CDP", zap.Error(err))
				return fmt.Errorf("stealth: failed to set locale: %w", err)
			}
		}
		return nil
	})
}
