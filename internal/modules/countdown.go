package modules

import (
	"context"
	"encoding/json"
	"time"
)

type CountdownData struct {
	Title      string `json:"title"`
	Days       int64  `json:"days"`
	Hours      int64  `json:"hours"`
	Minutes    int64  `json:"minutes"`
	Seconds    int64  `json:"seconds"`
	TargetDate string `json:"targetDate"`
}

type CountdownExpired struct {
	Expired bool   `json:"expired"`
	Message string `json:"message"`
}

type countdownRenderer struct {
	now func() time.Time
}

func newCountdownRenderer() *countdownRenderer {
	return &countdownRenderer{now: time.Now}
}

const (
	msPerSecond int64 = 1000
	msPerMinute       = 60 * msPerSecond
	msPerHour         = 60 * msPerMinute
	msPerDay          = 24 * msPerHour
)

func (c *countdownRenderer) Render(_ context.Context, raw json.RawMessage, _ Context) any {
	var cfg CountdownConfig

	if err := json.Unmarshal(raw, &cfg); err != nil || cfg.TargetDate == "" {
		return ErrorData{Error: "Target date not configured"}
	}

	target, err := time.Parse(time.RFC3339, cfg.TargetDate)

	if err != nil {
		return ErrorData{Error: "Invalid target date"}
	}

	diff := target.Sub(c.now()).Milliseconds()

	if diff <= 0 {
		msg := cfg.ExpiredMessage

		if msg == "" {
			msg = "Event has passed"
		}

		// never negative time components
		return CountdownExpired{Expired: true, Message: msg}
	}

	// successive integer division; each unit works on the remainder
	// of the previous one
	days := diff / msPerDay
	rem := diff % msPerDay
	hours := rem / msPerHour
	rem %= msPerHour
	minutes := rem / msPerMinute
	seconds := (rem % msPerMinute) / msPerSecond

	title := cfg.Title

	if title == "" {
		title = "Countdown"
	}

	return CountdownData{
		Title:      title,
		Days:       days,
		Hours:      hours,
		Minutes:    minutes,
		Seconds:    seconds,
		TargetDate: cfg.TargetDate,
	}
}
