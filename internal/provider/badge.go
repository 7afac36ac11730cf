// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"time"

	"github.com/avelasko/research-inbox/pkg/types"
)

// Badge windows per category.
const (
	grantClosingWindow = 30 * 24 * time.Hour
	paperRecentWindow  = 90 * 24 * time.Hour
	newsBreakingWindow = 48 * time.Hour
)

// grantBadge returns "Closing soon" when the close date falls within the
// next 30 days. Unparseable or already-passed dates earn no badge.
func grantBadge(closeDate string, now time.Time) string {
	t, ok := parseGrantDate(closeDate)
	if !ok {
		return ""
	}
	remaining := t.Sub(now)
	if remaining >= 0 && remaining <= grantClosingWindow {
		return types.BadgeClosingSoon
	}
	return ""
}

// paperBadge returns "Recent" when the publication date is within the last
// 90 days.
func paperBadge(pubDate string, now time.Time) string {
	t, ok := parsePubDate(pubDate)
	if !ok {
		return ""
	}
	age := now.Sub(t)
	if age >= 0 && age <= paperRecentWindow {
		return types.BadgeRecent
	}
	return ""
}

// newsBadge returns "Breaking" when the article was published within the
// last 48 hours.
func newsBadge(publishedAt string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return ""
	}
	age := now.Sub(t)
	if age >= 0 && age <= newsBreakingWindow {
		return types.BadgeBreaking
	}
	return ""
}

// parseGrantDate accepts the "MM/DD/YYYY" form grants.gov emits and the ISO
// form stored cards carry.
func parseGrantDate(s string) (time.Time, bool) {
	for _, layout := range []string{"01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePubDate accepts PubMed pubdate strings, which truncate to month or
// year ("2026 Jan 15", "2026 Jan", "2026").
func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006 Jan 2", "2006 Jan", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
