package extract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

func extractPDFFile(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readPlainText(reader)
}

func extractPDFBytes(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return readPlainText(reader)
}

func readPlainText(reader *pdf.Reader) (string, error) {
	content, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}
