package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUsageReport(t *testing.T) {
	now := time.Date(2025, 8, 16, 12, 0, 0, 0, bangkok)
	counters := []Counter{
		{DocumentType: KindQuotation, DatePrefix: "680816", Sequence: 9, UpdatedAt: now.Add(-time.Hour)},
		{DocumentType: KindQuotation, DatePrefix: "680815", Sequence: 3, UpdatedAt: now.Add(-24 * time.Hour)},
		{DocumentType: KindInvoice, DatePrefix: "680816", Sequence: 5, UpdatedAt: now.Add(-2 * time.Hour)},
	}

	r := BuildUsageReport(counters, now)

	assert.Equal(t, int64(17), r.TotalIssued)
	assert.Equal(t, 2, r.ActiveToday)
	require.Len(t, r.ByKind, 2)
	assert.Equal(t, KindUsage{Kind: KindInvoice, Buckets: 1, Issued: 5, LatestPrefix: "680816", LatestSequence: 5}, r.ByKind[0])
	assert.Equal(t, KindUsage{Kind: KindQuotation, Buckets: 2, Issued: 12, LatestPrefix: "680816", LatestSequence: 9}, r.ByKind[1])

	require.Len(t, r.Recent, 3)
	assert.Equal(t, "680816", r.Recent[0].DatePrefix)
	assert.Equal(t, KindQuotation, r.Recent[0].DocumentType)
	assert.Equal(t, "680815", r.Recent[2].DatePrefix)
}

func TestBuildUsageReport_LatestByCalendarDate(t *testing.T) {
	now := time.Date(2057, 1, 1, 20, 0, 0, 0, bangkok) // Buddhist year 2600
	counters := []Counter{
		{DocumentType: KindQuotation, DatePrefix: "990102", Sequence: 4, UpdatedAt: now},
		{DocumentType: KindQuotation, DatePrefix: "981231", Sequence: 7, UpdatedAt: now},
		{DocumentType: KindInvoice, DatePrefix: "9901", Sequence: 2, UpdatedAt: now},
		{DocumentType: KindInvoice, DatePrefix: "990103", Sequence: 1, UpdatedAt: now},
		{DocumentType: KindReceipt, DatePrefix: "0001", Sequence: 6, UpdatedAt: now},
		{DocumentType: KindReceipt, DatePrefix: "991231", Sequence: 8, UpdatedAt: now},
	}

	r := BuildUsageReport(counters, now)
	require.Len(t, r.ByKind, 3)

	// INV: the day bucket is newer than its month bucket.
	assert.Equal(t, "990103", r.ByKind[0].LatestPrefix)
	assert.Equal(t, int64(1), r.ByKind[0].LatestSequence)
	// QT: 99 follows 98.
	assert.Equal(t, "990102", r.ByKind[1].LatestPrefix)
	// RE: 00 is the next Buddhist century, after 99.
	assert.Equal(t, "0001", r.ByKind[2].LatestPrefix)
	assert.Equal(t, int64(6), r.ByKind[2].LatestSequence)
}

func TestBuildUsageReport_Empty(t *testing.T) {
	r := BuildUsageReport(nil, time.Now())
	assert.Zero(t, r.TotalIssued)
	assert.NotNil(t, r.ByKind)
	assert.NotNil(t, r.Recent)
}
