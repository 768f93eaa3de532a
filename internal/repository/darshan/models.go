package darshan

// Session is an overlay session prepared over REST and waiting for its
// display link to connect. Optional fields are nil when the viewer did not
// send them and are left out of the stored hash.
type Session struct {
	ID            string  `redis:"id"`
	ViewerID      string  `redis:"viewer_id"`
	VideoID       string  `redis:"video_id"`
	ViewportWidth *int    `redis:"viewport_width"`
	Origin        *string `redis:"origin"`
}

// GetViewportWidth returns the viewport width, 0 when unknown.
func (s Session) GetViewportWidth() int {
	if s.ViewportWidth == nil {
		return 0
	}
	return *s.ViewportWidth
}

func (s Session) GetOrigin() string {
	if s.Origin == nil {
		return ""
	}
	return *s.Origin
}
