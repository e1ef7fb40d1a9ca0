package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// searchWindows bounds how far back the previous trigger is looked for.
var searchWindows = []time.Duration{
	time.Hour,
	24 * time.Hour,
	31 * 24 * time.Hour,
	366 * 24 * time.Hour,
}

// GetTriggerInfo reports the previous and next firing of a standard
// five-field cron expression around refTime.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       schedule.Next(refTime),
		Last:       lastTrigger(schedule, refTime),
	}
	if !info.Last.IsZero() {
		info.TimeSinceLast = refTime.Sub(info.Last)
	}
	info.TimeUntilNext = info.Next.Sub(refTime)
	return info, nil
}

func lastTrigger(schedule cron.Schedule, refTime time.Time) time.Time {
	for _, window := range searchWindows {
		var last time.Time
		next := schedule.Next(refTime.Add(-window))
		for steps := 0; !next.IsZero() && !next.After(refTime) && steps < 100000; steps++ {
			last = next
			next = schedule.Next(next)
		}
		if !last.IsZero() {
			return last
		}
	}
	return time.Time{}
}
