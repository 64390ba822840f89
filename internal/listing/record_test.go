package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	r := Record{Site: SiteArabam, ListingID: " 123 ", Title: "Renault Clio"}
	assert.Equal(t, "arabam:123", r.Key())

	r.ListingID = ""
	assert.Equal(t, "arabam:title:renault clio", r.Key())

	r.Title = "   "
	assert.Equal(t, "", r.Key())
}

func TestSufficient(t *testing.T) {
	assert.False(t, Sufficient(nil))
	assert.False(t, Sufficient(&Record{Site: SiteArabam, SourceURL: "https://www.arabam.com/"}))
	assert.False(t, Sufficient(&Record{Raw: "<html>lots of text</html>"}))
	assert.True(t, Sufficient(&Record{ListingID: "1"}))
	assert.True(t, Sufficient(&Record{Title: "Fiat Egea"}))
	assert.True(t, Sufficient(&Record{Attributes: map[Field]string{FieldPrice: "500.000 TL"}}))
	assert.True(t, Sufficient(&Record{Attributes: map[Field]string{FieldBrandModel: "Fiat Egea"}}))

	assert.False(t, SufficientBatch(nil))
	assert.True(t, SufficientBatch([]Record{{Title: "x"}}))
}

func TestNormalize(t *testing.T) {
	r := Record{
		Title:        "  Renault   Clio ",
		Attributes:   map[Field]string{FieldPrice: " 500.000 TL ", FieldColor: "  "},
		PaintedParts: []string{" Kaput ", ""},
		ChangedParts: []string{"  "},
	}
	r.Normalize()

	assert.Equal(t, "Renault Clio", r.Title)
	assert.Equal(t, map[Field]string{FieldPrice: "500.000 TL"}, r.Attributes)
	assert.Equal(t, []string{"Kaput"}, r.PaintedParts)
	assert.Nil(t, r.ChangedParts)
}

func TestBrand(t *testing.T) {
	r := Record{}
	assert.Equal(t, "", r.Brand())

	r.Set(FieldBrandModel, "Renault Clio 1.0 TCe")
	assert.Equal(t, "Renault", r.Brand())

	r.Set(FieldBrand, "Dacia")
	assert.Equal(t, "Dacia", r.Brand())
}

func TestDisplayFields(t *testing.T) {
	r := Record{ListingID: "123", Title: "Clio"}
	r.Set(FieldYear, "2019")
	r.Set(FieldPrice, "500.000 TL")

	fields := DisplayFields(&r)
	assert.Len(t, fields, 4)
	assert.Equal(t, "Başlık", fields[0].Label)
	assert.Equal(t, FieldPrice, fields[1].Field)
	assert.Equal(t, FieldYear, fields[2].Field)
	assert.Equal(t, "İlan No", fields[3].Label)

	assert.Empty(t, DisplayFields(&Record{}))
}

func TestCloneIsDeep(t *testing.T) {
	r := Record{PaintedParts: []string{"Kaput"}}
	r.Set(FieldYear, "2019")

	c := r.Clone()
	c.Set(FieldYear, "2020")
	c.PaintedParts[0] = "Tavan"

	assert.Equal(t, "2019", r.Get(FieldYear))
	assert.Equal(t, "Kaput", r.PaintedParts[0])
}
