package reminder

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/notification"
)

// MinOffsetMinutes and MaxOffsetMinutes bound the accepted UTC offset
// domain (±12h in minutes). Real zones beyond ±12h and sub-hour zones at
// the edges are deliberately not handled.
const (
	MinOffsetMinutes = -720
	MaxOffsetMinutes = 720
)

// Partition re-validates each candidate and splits the survivors into the
// morning and evening recipient lists. The storage query already filtered
// on the same windows, but with its own numeric coercion; any row the two
// passes disagree on is logged and dropped, never fatal.
func Partition(cands []notification.Candidate, morning, evening notification.Window, log *zap.Logger) (m, e []notification.Recipient, dropped int) {
	for _, c := range cands {
		if c.Details == nil {
			// Selection should never hand us these; worth a warning
			// because it points at stale enabled-at state.
			log.Warn("candidate without notification details", zap.String("user_id", c.UserID))
			dropped++
			continue
		}

		offset, ok := parseOffset(c.TZOffsetRaw)
		if !ok || offset < MinOffsetMinutes || offset > MaxOffsetMinutes {
			log.Warn("invalid timezone offset",
				zap.String("user_id", c.UserID),
				zap.String("tz_offset", c.TZOffsetRaw),
			)
			dropped++
			continue
		}

		fid, err := strconv.ParseInt(c.UserID, 10, 64)
		if err != nil {
			log.Warn("non-numeric fid", zap.String("user_id", c.UserID))
			dropped++
			continue
		}

		r := notification.Recipient{FID: fid, Details: *c.Details}
		switch {
		case morning.Contains(offset):
			m = append(m, r)
		case evening.Contains(offset):
			e = append(e, r)
		default:
			log.Warn("offset outside both windows",
				zap.String("user_id", c.UserID),
				zap.Int("offset", offset),
			)
			dropped++
		}
	}
	return m, e, dropped
}

// parseOffset reads a signed integer minute offset from the raw session
// value. An absent value means the client never reported one and counts
// as UTC.
func parseOffset(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
