package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"agro-attendance/internal/models"
)

// maxMessageLength is the Telegram limit for one text message.
const maxMessageLength = 4096

var (
	errNoIDs       = errors.New("no employee ids given")
	errUnknownKey  = errors.New("unknown field")
	errBadBool     = errors.New("expected yes or no")
	errMissingPair = errors.New("expected key=value")
)

// fieldAliases maps the short names operators type to record field keys.
// Food fields resolve to their bulk key under models.FoodFieldPrefix.
var fieldAliases = map[string]string{
	"entry":      models.FieldEntryTime,
	"in":         models.FieldEntryTime,
	"exit":       models.FieldExitTime,
	"out":        models.FieldExitTime,
	"lunchtime":  models.FieldLunchDuration,
	"break":      models.FieldLunchDuration,
	"vacation":   models.FieldIsVacation,
	"permission": models.FieldPermissionHours,
	"reason":     models.FieldPermissionReason,

	"breakfast":  models.FoodFieldPrefix + models.FoodBreakfast,
	"reinforced": models.FoodFieldPrefix + models.FoodReinforcedBreakfast,
	"snack":      models.FoodFieldPrefix + models.FoodSnack1,
	"afternoon":  models.FoodFieldPrefix + models.FoodAfternoonSnack,
	"drymeal":    models.FoodFieldPrefix + models.FoodDryMeal,
	"lunch":      models.FoodFieldPrefix + models.FoodLunch,
	"transport":  models.FoodFieldPrefix + models.FoodTransport,
}

// parseDate reads YYYY-MM-DD, "today" or "yesterday". An empty argument
// means today.
func parseDate(arg string, now time.Time) (time.Time, error) {
	arg = strings.TrimSpace(strings.ToLower(arg))
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch arg {
	case "", "today":
		return day, nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	}

	t, err := time.ParseInLocation(models.DateLayout, arg, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", arg)
	}
	return t, nil
}

// parseMonth reads YYYY-MM; empty means the month of now.
func parseMonth(arg string, now time.Time) (int, int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", arg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", arg)
	}
	return t.Year(), int(t.Month()), nil
}

func parseID(arg string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(v), nil
}

// parseIDs reads ids separated by spaces or commas.
func parseIDs(arg string) ([]uint, error) {
	fields := strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, errNoIDs
	}

	ids := make([]uint, 0, len(fields))
	for _, f := range fields {
		id, err := parseID(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseBool(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	}
	return false, errBadBool
}

// parseFieldValue resolves an operator field name and converts its raw value
// to the type the record store expects for it.
func parseFieldValue(name, raw string) (string, any, error) {
	key, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", nil, fmt.Errorf("%w %q", errUnknownKey, name)
	}
	raw = strings.TrimSpace(raw)

	switch key {
	case models.FieldEntryTime, models.FieldExitTime:
		if _, err := models.ParseClock(raw); err != nil {
			return "", nil, err
		}
		return key, raw, nil
	case models.FieldIsVacation:
		b, err := parseBool(raw)
		if err != nil {
			return "", nil, err
		}
		return key, b, nil
	case models.FieldPermissionReason:
		return key, raw, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid number %q", raw)
	}
	return key, v, nil
}

// parseDefaults applies key=value pairs on top of base.
func parseDefaults(args string, base models.DefaultSettings) (models.DefaultSettings, error) {
	d := base
	pairs := strings.Fields(args)
	if len(pairs) == 0 {
		return d, errMissingPair
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			return d, fmt.Errorf("%w, got %q", errMissingPair, pair)
		}

		switch strings.ToLower(k) {
		case "hours":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return d, fmt.Errorf("invalid working hours %q", v)
			}
			d.WorkingHours = f
			continue
		case "lunchtime", "break":
			n, err := strconv.Atoi(v)
			if err != nil {
				return d, fmt.Errorf("invalid lunch duration %q", v)
			}
			d.LunchDuration = n
			continue
		}

		key, value, err := parseFieldValue(k, v)
		if err != nil {
			return d, err
		}
		switch key {
		case models.FieldEntryTime:
			d.EntryTime = value.(string)
		case models.FieldExitTime:
			d.ExitTime = value.(string)
		default:
			food, isFood := strings.CutPrefix(key, models.FoodFieldPrefix)
			if !isFood {
				return d, fmt.Errorf("%w %q for defaults", errUnknownKey, k)
			}
			d.FoodAllowance.Set(food, value.(float64))
		}
	}

	return d, nil
}

// splitMessage cuts text on line boundaries into chunks Telegram accepts.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	size := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line) + 1
		if size > 0 && size+n > limit {
			chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
			b.Reset()
			size = 0
		}
		for n > limit {
			head := []rune(line)[:limit-1]
			chunks = append(chunks, string(head))
			line = string([]rune(line)[limit-1:])
			n = utf8.RuneCountInString(line) + 1
		}
		b.WriteString(line)
		b.WriteByte('\n')
		size += n
	}
	if b.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
	}
	return chunks
}
