package player

import "strings"

type Quality string

const (
	QualityAuto  Quality = "Auto"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

// quality tokens understood by the embedded player
const (
	tokenDefault = "default"
	tokenHD1080  = "hd1080"
	tokenHD720   = "hd720"
	tokenLarge   = "large"
	tokenMedium  = "medium"
)

// Qualities lists the labels offered in the quality menu, in menu order.
var Qualities = []Quality{QualityAuto, Quality1080p, Quality720p, Quality480p, Quality360p}

// ParseQuality maps a menu label to a Quality. Unknown labels become QualityAuto.
func ParseQuality(label string) Quality {
	for _, q := range Qualities {
		if strings.EqualFold(string(q), strings.TrimSpace(label)) {
			return q
		}
	}

	return QualityAuto
}

// Token returns the embedded player's name for the quality tier.
func (q Quality) Token() string {
	switch q {
	case Quality1080p:
		return tokenHD1080
	case Quality720p:
		return tokenHD720
	case Quality480p:
		return tokenLarge
	case Quality360p:
		return tokenMedium
	default:
		return tokenDefault
	}
}

// State is a snapshot of one overlay session. Version grows with every change
// so consumers can drop snapshots that arrive out of order.
type State struct {
	VideoID         string  `json:"video_id"`
	Active          bool    `json:"active"`
	IsPlaying       bool    `json:"is_playing"`
	VolumeLevel     int     `json:"volume_level"`
	PreviousVolume  int     `json:"previous_volume"`
	IsMuted         bool    `json:"is_muted"`
	IsFullscreen    bool    `json:"is_fullscreen"`
	Quality         Quality `json:"quality"`
	QualityMenuOpen bool    `json:"quality_menu_open"`
	ControlsVisible bool    `json:"controls_visible"`
	ControlsLocked  bool    `json:"controls_locked"`
	IsLoading       bool    `json:"is_loading"`
	BigIconVisible  bool    `json:"big_icon_visible"`
	Version         uint64  `json:"version"`
}

func clampVolume(v int) int {
	return max(0, min(100, v))
}
