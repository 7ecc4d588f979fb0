package cron

import (
	"time"

	"github.com/Daskott/dispatch/server/logger"
	"github.com/go-co-op/gocron"
)

var logg = logger.NewLogger("cron")

// NewCronScheduler returns a scheduler running in timeZoneArg, or UTC when
// the zone can't be loaded. Job tags must be unique.
func NewCronScheduler(timeZoneArg string) *gocron.Scheduler {
	timeZone, err := time.LoadLocation(timeZoneArg)
	if err != nil {
		logg.Warnf("unknown time zone '%v', using UTC: %v", timeZoneArg, err)
		timeZone = time.UTC
	}

	scheduler := gocron.NewScheduler(timeZone)
	scheduler.TagsUnique()

	return scheduler
}
