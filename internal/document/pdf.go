package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PagesText returns the plain text of every page of a PDF, in page order.
// A page whose content cannot be read yields an empty string; only a
// document that cannot be parsed at all is an error.
//
// Documents the reader rejects (broken cross-reference tables, stray bytes
// before the header) are rewritten by pdfcpu once and read again.
func PagesText(data []byte) ([]string, error) {
	reader, err := openPDF(data)
	if err != nil {
		repaired, repairErr := repairPDF(data)
		if repairErr != nil {
			return nil, fmt.Errorf("read pdf: %w (repair: %v)", err, repairErr)
		}

		reader, err = openPDF(repaired)
		if err != nil {
			return nil, fmt.Errorf("read repaired pdf: %w", err)
		}
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for pageNr := 1; pageNr <= total; pageNr++ {
		pages = append(pages, pageText(reader, pageNr))
	}

	return pages, nil
}

func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageText decodes one page through its fonts' encodings and ToUnicode maps.
func pageText(reader *pdf.Reader, pageNr int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func repairPDF(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
