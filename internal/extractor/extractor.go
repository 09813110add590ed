// Package extractor pulls booking details out of free-form customer text.
package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
)

// Extractor finds reservation entities in a message.
type Extractor interface {
	Extract(text string) domain.ExtractedEntities
}

const (
	minPartySize = 1
	maxPartySize = 50
)

var partySizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(?:personas?|persons?|people)`),
	regexp.MustCompile(`(?:para|for)\s*(\d+)`),
	regexp.MustCompile(`(?:somos|we are)\s*(\d+)`),
	regexp.MustCompile(`(?:mesa para|table for)\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*(?:comensales|comensal|guests?)`),
}

var (
	clockPattern    = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	meridiemPattern = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	dayPartPattern  = regexp.MustCompile(`(\d{1,2})\s*de\s*la\s*(tarde|noche|mañana)`)
	datePattern     = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
)

// Longer phrases come first so "pasado mañana" is not read as "mañana".
var dateKeywords = []struct {
	keyword string
	days    int
}{
	{"day after tomorrow", 2},
	{"pasado mañana", 2},
	{"pasado", 2},
	{"tomorrow", 1},
	{"mañana", 1},
	{"today", 0},
	{"hoy", 0},
}

// Heuristic is a regex based Extractor. Relative dates are resolved against now.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic(now func() time.Time) *Heuristic {
	if now == nil {
		now = time.Now
	}
	return &Heuristic{now: now}
}

func (h *Heuristic) Extract(text string) domain.ExtractedEntities {
	return ExtractAt(text, h.now())
}

// ExtractAt extracts entities using ref as the current moment for relative dates.
func ExtractAt(text string, ref time.Time) domain.ExtractedEntities {
	lower := strings.ToLower(text)
	return domain.ExtractedEntities{
		PartySize: PartySize(lower),
		Time:      Time(lower),
		Date:      Date(lower, ref),
	}
}

// PartySize returns the first in-range party size matched by the ordered patterns.
func PartySize(text string) *int {
	text = strings.ToLower(text)
	for _, p := range partySizePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < minPartySize || n > maxPartySize {
			continue
		}
		return &n
	}
	return nil
}

// Time returns a 24h "HH:MM" time, or nil.
func Time(text string) *string {
	text = strings.ToLower(text)

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return clock(hour, minute)
		}
	}

	if m := meridiemPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch {
		case m[2] == "pm" && hour != 12:
			hour += 12
		case m[2] == "am" && hour == 12:
			hour = 0
		}
		if hour <= 23 {
			return clock(hour, 0)
		}
	}

	if m := dayPartPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if (m[2] == "tarde" || m[2] == "noche") && hour < 12 {
			hour += 12
		}
		if hour <= 23 {
			return clock(hour, 0)
		}
	}

	return nil
}

// Date resolves a relative keyword against ref, then falls back to DD/MM/YYYY.
func Date(text string, ref time.Time) *time.Time {
	text = strings.ToLower(text)

	for _, k := range dateKeywords {
		if strings.Contains(text, k.keyword) {
			d := startOfDay(ref).AddDate(0, 0, k.days)
			return &d
		}
	}

	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location())
	// time.Date normalizes overflow (32/01 -> 01/02); reject instead.
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return nil
	}
	return &d
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func clock(hour, minute int) *string {
	s := fmt.Sprintf("%02d:%02d", hour, minute)
	return &s
}
