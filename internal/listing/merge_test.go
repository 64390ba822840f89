package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	t0 = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t1.Add(time.Minute)
)

func detail(id string, fields map[Field]string) Record {
	return Record{Site: SiteArabam, PageKind: PageDetail, ListingID: id, Attributes: fields}
}

func TestNewRecordStampsBothTimes(t *testing.T) {
	r := NewRecord(detail("123", map[Field]string{FieldPrice: "500000 TL", FieldYear: "2019"}), t0)
	assert.Equal(t, t0, r.CreatedAt)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestMergeEnrichesWithoutLosingFields(t *testing.T) {
	stored := NewRecord(detail("123", map[Field]string{FieldPrice: "500000 TL", FieldYear: "2019"}), t0)

	merged := Merge(stored, detail("123", map[Field]string{FieldKilometer: "80000"}), t1)

	assert.Equal(t, "500000 TL", merged.Get(FieldPrice))
	assert.Equal(t, "2019", merged.Get(FieldYear))
	assert.Equal(t, "80000", merged.Get(FieldKilometer))
	assert.Equal(t, t0, merged.CreatedAt)
	assert.Equal(t, t1, merged.UpdatedAt)
}

func TestMergeOverwritesOnlyNonEmptyFields(t *testing.T) {
	stored := NewRecord(detail("123", map[Field]string{FieldPrice: "500000 TL", FieldColor: "Beyaz"}), t0)

	incoming := detail("123", map[Field]string{FieldPrice: "480000 TL", FieldColor: ""})
	merged := Merge(stored, incoming, t1)

	assert.Equal(t, "480000 TL", merged.Get(FieldPrice))
	assert.Equal(t, "Beyaz", merged.Get(FieldColor))
}

func TestMergeIsIdempotent(t *testing.T) {
	stored := NewRecord(detail("123", nil), t0)
	attempt := detail("123", map[Field]string{FieldPrice: "1 TL", FieldYear: "2019"})
	attempt.PaintedParts = []string{"Kaput"}

	once := Merge(stored, attempt, t1)
	twice := Merge(once, attempt, t2)

	assert.Equal(t, once.Attributes, twice.Attributes)
	assert.Equal(t, once.PaintedParts, twice.PaintedParts)
	assert.Equal(t, once.CreatedAt, twice.CreatedAt)
	assert.True(t, twice.UpdatedAt.After(once.UpdatedAt))
}

func TestMergeKeepsDamageListsWhenIncomingIsEmpty(t *testing.T) {
	first := detail("9", nil)
	first.PaintedParts = []string{"Sol ön çamurluk"}
	first.ChangedParts = []string{"Kaput"}
	stored := NewRecord(first, t0)

	second := detail("9", map[Field]string{FieldYear: "2018"})
	second.PaintedParts = []string{}
	merged := Merge(stored, second, t1)

	assert.Equal(t, []string{"Sol ön çamurluk"}, merged.PaintedParts)
	assert.Equal(t, []string{"Kaput"}, merged.ChangedParts)

	third := detail("9", nil)
	third.ChangedParts = []string{"Sağ ön kapı"}
	merged = Merge(merged, third, t2)
	assert.Equal(t, []string{"Sol ön çamurluk"}, merged.PaintedParts)
	assert.Equal(t, []string{"Sağ ön kapı"}, merged.ChangedParts)
}

func TestMergeListThenDetail(t *testing.T) {
	row := Record{Site: SiteArabam, PageKind: PageList, Title: "Renault Clio", SourceURL: "https://www.arabam.com/ikinci-el"}
	row.Set(FieldPrice, "500.000 TL")
	stored := NewRecord(row, t0)

	page := detail("123", map[Field]string{FieldKilometer: "80.000"})
	page.SourceURL = "https://www.arabam.com/ilan/x/123"
	merged := Merge(stored, page, t1)

	assert.Equal(t, "123", merged.ListingID)
	assert.Equal(t, PageDetail, merged.PageKind)
	assert.Equal(t, "Renault Clio", merged.Title)
	assert.Equal(t, "500.000 TL", merged.Get(FieldPrice))
	assert.Equal(t, "80.000", merged.Get(FieldKilometer))
	assert.Equal(t, "https://www.arabam.com/ilan/x/123", merged.SourceURL)
}

func TestMergeDoesNotAliasIncoming(t *testing.T) {
	stored := NewRecord(detail("1", nil), t0)
	incoming := detail("1", map[Field]string{FieldYear: "2019"})
	merged := Merge(stored, incoming, t1)

	incoming.Attributes[FieldYear] = "1999"
	assert.Equal(t, "2019", merged.Get(FieldYear))
}
