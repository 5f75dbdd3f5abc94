package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func LatestForecastKey(siteID uuid.UUID) string {
	return fmt.Sprintf("forecast:latest:%s", siteID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
