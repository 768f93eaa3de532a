package darshan

import (
	"context"

	"github.com/bookmyseva/darshan/internal/content"
	"github.com/bookmyseva/darshan/pkg/ytid"
)

type Video struct {
	ID                   string            `json:"id"`
	EmbedURL             string            `json:"embed_url"`
	ThumbnailURL         string            `json:"thumbnail_url"`
	FallbackThumbnailURL string            `json:"fallback_thumbnail_url"`
	Title                string            `json:"title,omitempty"`
	AuthorName           string            `json:"author_name,omitempty"`
	IsDefault            bool              `json:"is_default"`
	AppConfig            content.AppConfig `json:"app_config"`
}

// ResolveVideo picks the darshan stream from the content config. When the
// configured source does not resolve the default video is used.
func (s service) ResolveVideo(ctx context.Context, origin string) (Video, error) {
	appConfig := s.content.FetchOrFallback(ctx)

	id, ok := ytid.Resolve(appConfig.LiveVideoURL)
	if !ok {
		s.logger.InfoContext(ctx, "live video url did not resolve, using default",
			"live_video_url", appConfig.LiveVideoURL, "default_video_id", s.defaultVideoID)
		id = s.defaultVideoID
	}

	return s.describeVideo(ctx, id, origin, !ok, appConfig), nil
}

func (s service) describeVideo(ctx context.Context, id, origin string, isDefault bool, appConfig content.AppConfig) Video {
	thumbnail, fallbackThumbnail := ytid.ThumbnailURLs(id)
	video := Video{
		ID:                   id,
		EmbedURL:             ytid.EmbedURL(id, origin),
		ThumbnailURL:         thumbnail,
		FallbackThumbnailURL: fallbackThumbnail,
		IsDefault:            isDefault,
		AppConfig:            appConfig,
	}

	if s.videoData == nil {
		return video
	}
	data, err := s.videoData.Get(ctx, id)
	if err != nil {
		s.logger.DebugContext(ctx, "video metadata unavailable", "video_id", id, "error", err)
		return video
	}
	video.Title = data.Title
	video.AuthorName = data.AuthorName

	return video
}
