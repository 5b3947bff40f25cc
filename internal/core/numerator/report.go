package numerator

import (
	"sort"
	"time"
)

// recentLimit caps UsageReport.Recent.
const recentLimit = 20

// KindUsage summarizes the counters of one counter kind.
type KindUsage struct {
	Kind Kind `json:"kind"`
	// Buckets is the number of date prefixes with a counter.
	Buckets int `json:"buckets"`
	// Issued is the sum of all counters, burned numbers included.
	Issued int64 `json:"issued"`
	// LatestPrefix is the newest date bucket by calendar date and
	// LatestSequence its value.
	LatestPrefix   string `json:"latestPrefix"`
	LatestSequence int64  `json:"latestSequence"`
}

// UsageReport is an overview of counter consumption.
type UsageReport struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	TotalIssued int64       `json:"totalIssued"`
	ActiveToday int         `json:"activeToday"`
	ByKind      []KindUsage `json:"byKind"`
	Recent      []Counter   `json:"recent"`
}

// BuildUsageReport aggregates counters. A counter is active today when it
// was updated on the calendar day of now, in now's location.
func BuildUsageReport(counters []Counter, now time.Time) UsageReport {
	report := UsageReport{GeneratedAt: now, ByKind: []KindUsage{}, Recent: []Counter{}}
	byKind := make(map[Kind]*KindUsage)
	latest := make(map[Kind]int)

	y, m, d := now.Date()
	for _, c := range counters {
		report.TotalIssued += c.Sequence

		cy, cm, cd := c.UpdatedAt.In(now.Location()).Date()
		if cy == y && cm == m && cd == d {
			report.ActiveToday++
		}

		u, ok := byKind[c.DocumentType]
		if !ok {
			u = &KindUsage{Kind: c.DocumentType}
			byKind[c.DocumentType] = u
		}
		u.Buckets++
		u.Issued += c.Sequence
		if order := bucketOrder(c.DatePrefix, now); u.LatestPrefix == "" || order > latest[c.DocumentType] {
			latest[c.DocumentType] = order
			u.LatestPrefix = c.DatePrefix
			u.LatestSequence = c.Sequence
		}
	}

	for _, u := range byKind {
		report.ByKind = append(report.ByKind, *u)
	}
	sort.Slice(report.ByKind, func(i, j int) bool { return report.ByKind[i].Kind < report.ByKind[j].Kind })

	recent := append([]Counter(nil), counters...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].UpdatedAt.After(recent[j].UpdatedAt) })
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	report.Recent = append(report.Recent, recent...)

	return report
}

// bucketOrder maps a date prefix to YYYYMMDD in the Buddhist era, with DD 0
// for month buckets. The two-digit year is placed in the century closest to
// now. Malformed prefixes sort first.
func bucketOrder(datePrefix string, now time.Time) int {
	n, err := Parse(string(KindQuotation) + "-" + datePrefix + "-001")
	if err != nil {
		return -1
	}
	current := now.Year() + BuddhistEraOffset
	year := current - current%100 + n.Year%100
	switch {
	case year > current+50:
		year -= 100
	case year <= current-50:
		year += 100
	}
	return year*10000 + n.Month*100 + n.Day
}
