package widget

import (
	"fmt"
	"sort"
	"strings"
)

// maxWatchlistPerGroup caps each category bucket to the rows the board serves.
const maxWatchlistPerGroup = 8

// maxTrendItems caps the trends widget to its top movers.
const maxTrendItems = 10

// maxFlashItems caps the flash feed ring.
const maxFlashItems = 20

// FormatAmount renders a monetary value for display. Zero (including a field
// the backend omitted) renders as "0.00" rather than an error.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// CategoryIcon maps a watchlist category code to a display icon name.
// Unknown categories fall back to a neutral icon instead of failing.
func CategoryIcon(category string) string {
	switch strings.ToLower(category) {
	case "forex":
		return "currency"
	case "crypto":
		return "coin"
	case "indices":
		return "chart"
	case "commodities":
		return "gold"
	case "stocks":
		return "building"
	default:
		return "dot"
	}
}

// ImpactFromSentiment reformats a trend sentiment flag into an impact level.
func ImpactFromSentiment(sentiment string) string {
	switch strings.ToLower(sentiment) {
	case "bullish", "bearish":
		return "HIGH"
	case "volatile":
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// GroupWatchlist buckets items by category, capping each bucket. Group order
// follows the first appearance of each category in payload order; items keep
// payload order inside their group.
func GroupWatchlist(items []WatchlistItem) []WatchlistGroup {
	var order []string
	buckets := make(map[string][]WatchlistItem)
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = "other"
		}
		if _, ok := buckets[cat]; !ok {
			order = append(order, cat)
		}
		if len(buckets[cat]) < maxWatchlistPerGroup {
			buckets[cat] = append(buckets[cat], it)
		}
	}

	groups := make([]WatchlistGroup, 0, len(order))
	for _, cat := range order {
		groups = append(groups, WatchlistGroup{
			Category: cat,
			Icon:     CategoryIcon(cat),
			Items:    buckets[cat],
		})
	}
	return groups
}

// TopTrends derives the display impact for each trend item and keeps the
// top movers by absolute percentage change.
func TopTrends(items []TrendItem) []TrendItem {
	out := make([]TrendItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Impact = ImpactFromSentiment(out[i].Sentiment)
	}
	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := out[a].ChangePct, out[b].ChangePct
		if pa < 0 {
			pa = -pa
		}
		if pb < 0 {
			pb = -pb
		}
		return pa > pb
	})
	if len(out) > maxTrendItems {
		out = out[:maxTrendItems]
	}
	return out
}

// RecentFlash keeps the newest items up to the feed cap, newest first.
func RecentFlash(items []FlashItem) []FlashItem {
	out := make([]FlashItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Time.After(out[b].Time)
	})
	if len(out) > maxFlashItems {
		out = out[:maxFlashItems]
	}
	return out
}
