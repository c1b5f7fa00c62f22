package validate

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// ScheduleRefresh downloads the ticket list on the given cron schedule
// (standard five-field syntax or descriptors such as "@every 10m").
// The returned function stops the schedule and waits for a running refresh.
func (l *List) ScheduleRefresh(ctx context.Context, schedule string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := l.FetchFromAPI(ctx); err != nil {
			log.Printf("Scheduled ticket refresh: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	return func() {
		<-c.Stop().Done()
	}, nil
}
