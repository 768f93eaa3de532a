package ytid

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	idLength   = 11
	liveMarker = "/live/"
)

var (
	rawIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	urlRegexp   = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
)

// Resolve extracts the canonical video identifier from a raw id, a watch url,
// a shortened url, an embed url or a "/live/" url. The first matching form wins.
func Resolve(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if rawIDRegexp.MatchString(raw) {
		return raw, true
	}

	if match := urlRegexp.FindStringSubmatch(raw); match != nil && len(match[2]) == idLength {
		return match[2], true
	}

	if _, after, found := strings.Cut(raw, liveMarker); found {
		id, _, _ := strings.Cut(after, "?")
		id, _, _ = strings.Cut(id, "#")
		if rawIDRegexp.MatchString(id) {
			return id, true
		}
	}

	return "", false
}

// IsValid reports whether id is a bare 11 character identifier.
func IsValid(id string) bool {
	return rawIDRegexp.MatchString(id)
}

// EmbedURL returns the privacy-enhanced embed url with the iframe js api enabled
// and the native controls disabled, so the player is driven by commands only.
func EmbedURL(id, origin string) string {
	q := url.Values{}
	q.Set("autoplay", "1")
	q.Set("mute", "0")
	q.Set("rel", "0")
	q.Set("controls", "0")
	q.Set("disablekb", "1")
	q.Set("fs", "0")
	q.Set("modestbranding", "1")
	q.Set("showinfo", "0")
	q.Set("iv_load_policy", "3")
	q.Set("playsinline", "1")
	q.Set("enablejsapi", "1")
	q.Set("color", "white")
	q.Set("loop", "1")
	q.Set("wmode", "transparent")
	q.Set("vq", "hd1080")
	q.Set("cc_load_policy", "3")
	if origin != "" {
		q.Set("origin", origin)
		q.Set("widget_referrer", origin)
	}

	return fmt.Sprintf("https://www.youtube-nocookie.com/embed/%s?%s", url.PathEscape(id), q.Encode())
}

// ThumbnailURLs returns the max resolution thumbnail and the medium quality
// fallback used when the former does not exist.
func ThumbnailURLs(id string) (string, string) {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id),
		fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", id)
}
