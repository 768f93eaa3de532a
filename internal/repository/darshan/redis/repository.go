package redis

import (
	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc *redis.Client
}

func NewRepo(rc *redis.Client) *repo {
	return &repo{
		rc: rc,
	}
}
