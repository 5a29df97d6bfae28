package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

// ResolveRange turns a coarse preset and/or explicit bounds into a concrete
// half-open [from, to) window. Explicit bounds are literal instants and always
// override the preset; presets snap to the business calendar. With neither,
// the window runs from the start of the current business month through now.
func (s *Service) ResolveRange(preset, fromRaw, toRaw string, now time.Time) (Window, error) {
	win, err := presetWindow(preset, now)
	if err != nil {
		return Window{}, err
	}
	if raw := strings.TrimSpace(fromRaw); raw != "" {
		t, parseErr := parseInstant(raw)
		if parseErr != nil {
			return Window{}, fmt.Errorf("%w: from bound %q", domain.ErrInvalidInput, raw)
		}
		win.From = t
	}
	if raw := strings.TrimSpace(toRaw); raw != "" {
		t, parseErr := parseInstant(raw)
		if parseErr != nil {
			return Window{}, fmt.Errorf("%w: to bound %q", domain.ErrInvalidInput, raw)
		}
		win.To = t
	}
	if !win.From.Before(win.To) {
		return Window{}, fmt.Errorf("%w: window from must precede to", domain.ErrInvalidInput)
	}
	return win, nil
}

func presetWindow(preset string, now time.Time) (Window, error) {
	now = now.UTC()
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "":
		return Window{From: domain.StartOfBusinessMonth(now), To: now}, nil
	case "today", "1d":
		return Window{From: domain.BusinessDayStart(now), To: now}, nil
	case "7d":
		return Window{From: domain.BusinessDayStart(now).Add(-6 * 24 * time.Hour), To: now}, nil
	case "30d":
		return Window{From: domain.BusinessDayStart(now).Add(-29 * 24 * time.Hour), To: now}, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown range preset %q", domain.ErrInvalidInput, preset)
	}
}

func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	// Date-only bounds are read in the business calendar at the day boundary.
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return domain.BusinessDayStart(d.Add(12 * time.Hour)), nil
	}
	return time.Time{}, fmt.Errorf("unparseable instant %q", raw)
}
