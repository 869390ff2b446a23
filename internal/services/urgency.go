package services

import (
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
)

// Thresholds shared by the dashboard, the task list and status refreshes.
const (
	UrgentWithinDays   = 2
	UpcomingWithinDays = 7
)

// DaysUntil returns the number of calendar days from today (now in loc) to
// the deadline's date. Deadlines are calendar dates, so their own location is
// kept. Negative values mean the deadline has passed.
func DaysUntil(deadline, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(civilDate(deadline, deadline.Location()).Sub(civilDate(now, loc)).Hours() / 24)
}

// ClassifyDeadline maps a deadline to its urgency bucket. Overdue deadlines
// are urgent.
func ClassifyDeadline(deadline, now time.Time, loc *time.Location) models.TaskStatus {
	switch days := DaysUntil(deadline, now, loc); {
	case days <= UrgentWithinDays:
		return models.TaskStatusUrgent
	case days <= UpcomingWithinDays:
		return models.TaskStatusUpcoming
	default:
		return models.TaskStatusOnTrack
	}
}

// RefreshTaskStatus recomputes the status of an open task. Completed tasks
// keep the status they had when they were completed.
func RefreshTaskStatus(task *models.Task, now time.Time, loc *time.Location) bool {
	if task.Completed {
		return false
	}
	status := ClassifyDeadline(task.Deadline, now, loc)
	if status == task.Status {
		return false
	}
	task.Status = status
	return true
}

// civilDate truncates t to midnight UTC of its calendar date in loc, so that
// day differences are not affected by DST shifts.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
