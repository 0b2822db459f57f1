package wizard

import (
	"context"
	"fmt"
	"slices"
	"time"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"
)

// maxRangeDays bounds a single range selection.
const maxRangeDays = 366

// AddUnavailableDate returns dates with day added.
func AddUnavailableDate(dates []string, day time.Time) []string {
	return models.NormalizeDates(append(slices.Clone(dates), models.FormatDay(day)))
}

// AddUnavailableRange adds every day from from to to, inclusive.
func AddUnavailableRange(dates []string, from, to time.Time) ([]string, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("range longer than %d days", maxRangeDays)
	}
	out := slices.Clone(dates)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, models.FormatDay(d))
	}
	return models.NormalizeDates(out), nil
}

func RemoveUnavailableDate(dates []string, day time.Time) []string {
	target := models.FormatDay(day)
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != target {
			out = append(out, d)
		}
	}
	return models.NormalizeDates(out)
}

func dateError(field string, err error) error {
	v := apperr.NewValidationError("availability")
	v.Add(field, err.Error())
	return v
}

// MarkUnavailable blocks a single day on the draft.
func (c *Controller) MarkUnavailable(ctx context.Context, date string) error {
	day, err := models.ParseDay(date)
	if err != nil {
		return dateError("date", err)
	}
	return c.store.EditDraft(ctx, func(d *models.VehicleDraft) {
		d.UnavailableDates = AddUnavailableDate(d.UnavailableDates, day)
	})
}

// MarkUnavailableRange blocks every day in [from, to].
func (c *Controller) MarkUnavailableRange(ctx context.Context, from, to string) error {
	start, err := models.ParseDay(from)
	if err != nil {
		return dateError("from", err)
	}
	end, err := models.ParseDay(to)
	if err != nil {
		return dateError("to", err)
	}
	// Validate before editing so a bad range commits nothing.
	if _, err := AddUnavailableRange(nil, start, end); err != nil {
		return dateError("to", err)
	}
	return c.store.EditDraft(ctx, func(d *models.VehicleDraft) {
		d.UnavailableDates, _ = AddUnavailableRange(d.UnavailableDates, start, end)
	})
}

func (c *Controller) MarkAvailable(ctx context.Context, date string) error {
	day, err := models.ParseDay(date)
	if err != nil {
		return dateError("date", err)
	}
	return c.store.EditDraft(ctx, func(d *models.VehicleDraft) {
		d.UnavailableDates = RemoveUnavailableDate(d.UnavailableDates, day)
	})
}
