package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	appConfigPath  = "/v1/cms/app-config"
	siteConfigPath = "/v1/content/site-config"
)

var ErrEmptyConfig = errors.New("content endpoint returned no config")

// AppConfig merges the storefront's app config (store links and QR codes)
// with the site config content block (logo, marquee and live stream URLs).
type AppConfig struct {
	IOSQRImage        string `json:"iosQrImage,omitempty"`
	AndroidQRImage    string `json:"androidQrImage,omitempty"`
	IOSLink           string `json:"iosLink,omitempty"`
	AndroidLink       string `json:"androidLink,omitempty"`
	LogoURL           string `json:"logoUrl,omitempty"`
	LiveVideoURL      string `json:"liveVideoUrl,omitempty"`
	AudioStreamURL    string `json:"audioStreamUrl,omitempty"`
	HeaderMarqueeText string `json:"headerMarqueeText,omitempty"`
}

func (c AppConfig) IsZero() bool {
	return c == AppConfig{}
}

// merge overlays the non-empty fields of other onto c.
func (c AppConfig) merge(other AppConfig) AppConfig {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&c.IOSQRImage, other.IOSQRImage)
	pick(&c.AndroidQRImage, other.AndroidQRImage)
	pick(&c.IOSLink, other.IOSLink)
	pick(&c.AndroidLink, other.AndroidLink)
	pick(&c.LogoURL, other.LogoURL)
	pick(&c.LiveVideoURL, other.LiveVideoURL)
	pick(&c.AudioStreamURL, other.AudioStreamURL)
	pick(&c.HeaderMarqueeText, other.HeaderMarqueeText)
	return c
}

// FallbackAppConfig is served when the content endpoint fails or is empty.
func FallbackAppConfig() AppConfig {
	return AppConfig{
		IOSLink:     "https://apps.apple.com/app/bookmyseva",
		AndroidLink: "https://play.google.com/store/apps/details?id=com.bookmyseva",
	}
}

type siteConfigResponse struct {
	Content *AppConfig `json:"content"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fetch loads both config documents. The site config wins where both set a
// field. Callers fall back to FallbackAppConfig on error.
func (c *Client) Fetch(ctx context.Context) (AppConfig, error) {
	var appConfig AppConfig
	if err := c.getJSON(ctx, appConfigPath, &appConfig); err != nil {
		return AppConfig{}, fmt.Errorf("fetch app config: %w", err)
	}

	var siteConfig siteConfigResponse
	if err := c.getJSON(ctx, siteConfigPath, &siteConfig); err != nil {
		return AppConfig{}, fmt.Errorf("fetch site config: %w", err)
	}

	merged := appConfig
	if siteConfig.Content != nil {
		merged = merged.merge(*siteConfig.Content)
	}
	if merged.IsZero() {
		return AppConfig{}, ErrEmptyConfig
	}

	return merged, nil
}

// FetchOrFallback is Fetch with the fallback applied and the failure logged.
func (c *Client) FetchOrFallback(ctx context.Context) AppConfig {
	cfg, err := c.Fetch(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to fetch app config, using fallback", "error", err)
		return FallbackAppConfig()
	}

	return cfg
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
