package darshan

import (
	"context"
	"errors"

	"github.com/bookmyseva/darshan/internal/repository/darshan"
)

// viewerVolumes stores the volume of one viewer.
type viewerVolumes struct {
	repo     iDarshanRepo
	viewerID string
}

func (v viewerVolumes) LoadVolume(ctx context.Context) (int, bool, error) {
	volume, err := v.repo.GetVolume(ctx, v.viewerID)
	if err != nil {
		if errors.Is(err, darshan.ErrVolumeNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return volume, true, nil
}

func (v viewerVolumes) SaveVolume(ctx context.Context, volume int) error {
	return v.repo.SetVolume(ctx, &darshan.SetVolumeParams{
		ViewerID: v.viewerID,
		Volume:   volume,
	})
}
