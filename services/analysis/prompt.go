package analysis

import (
	"strconv"
	"strings"

	"sjsage522/dealscout/internal/listing"
)

// SystemPrompt sets the model up as a Turkish market car expert
const SystemPrompt = "Sen bir otomobil uzmanısın. Türkiye pazarını iyi biliyorsun. Kullanıcılara yardımcı, dürüst ve detaylı analizler sunuyorsun. Türkçe yanıt ver."

var questions = []string{
	"Bu fiyat hakkında ne düşünüyorsun? (Pahalı/Ucuz/Makul)",
	"Kilometre durumu nasıl? (Düşük/Orta/Yüksek)",
	"Bu aracın avantajları neler?",
	"Dikkat edilmesi gereken noktalar neler?",
	"Genel olarak bu ilanı tavsiye eder misin?",
}

// BuildPrompt lists the observed fields of rec followed by the questions
func BuildPrompt(rec *listing.Record) string {
	var b strings.Builder
	b.WriteString("Aşağıdaki araç ilanını detaylı analiz et:\n\n")
	b.WriteString("Araç Bilgileri:\n")
	for _, f := range listing.DisplayFields(rec) {
		b.WriteString("- " + f.Label + ": " + f.Value + "\n")
	}
	if len(rec.PaintedParts) > 0 {
		b.WriteString("- Boyalı Parçalar: " + strings.Join(rec.PaintedParts, ", ") + "\n")
	}
	if len(rec.ChangedParts) > 0 {
		b.WriteString("- Değişen Parçalar: " + strings.Join(rec.ChangedParts, ", ") + "\n")
	}

	url := rec.SourceURL
	if url == "" {
		url = "Yok"
	}
	b.WriteString("\nURL: " + url + "\n\n")

	b.WriteString("Lütfen şunları değerlendir:\n")
	for i, q := range questions {
		b.WriteString(strconv.Itoa(i+1) + ". " + q + "\n")
	}
	b.WriteString("\nKısa ve öz yanıt ver.")
	return b.String()
}
