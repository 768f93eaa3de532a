package darshan

import "time"

type SetSessionParams struct {
	SessionID     string
	ViewerID      string
	VideoID       string
	ViewportWidth int
	Origin        string
	ExpireAt      time.Time
}

type SetVolumeParams struct {
	ViewerID string
	Volume   int
}
