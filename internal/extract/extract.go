package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"socioscan-backend/internal/shared/apperr"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported is the cause for payloads that are neither PDF nor DOCX.
var ErrUnsupported = errors.New("unsupported document type")

// TextFromBytes extracts plain text from a PDF or DOCX payload. fileName is
// only used for error context.
// Malformed input yields a parse error; panics inside the parsers are recovered.
func TextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (text string, err error) {
	const op = "extract.text"
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", apperr.ParseError(op, errors.New("empty document"))
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = apperr.ParseError(op, fmt.Errorf("parser panic: %v", rec))
		}
	}()

	normalized := normalizeMimeType(mimeType, data)
	switch normalized {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", apperr.ParseError(op, fmt.Errorf("%w: %s (%s)", ErrUnsupported, normalized, fileName))
	}
	if err != nil {
		return "", apperr.ParseError(op, err)
	}
	return text, nil
}

// DetectMimeType sniffs the payload, trusting the declared type only when sniffing is inconclusive.
func DetectMimeType(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	clean := strings.ToLower(strings.TrimSpace(strings.Split(sniffed, ";")[0]))
	if clean == "application/octet-stream" && declared != "" {
		return declared
	}
	return clean
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 32<<20))
	if err != nil {
		return "", err
	}
	return stripDocxXML(raw)
}

func stripDocxXML(raw []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" || t.Name.Local == "tab" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func normalizeMimeType(mimeType string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	if clean != "application/zip" && clean != MimeDOCX {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return MimeDOCX
		}
	}
	return ""
}
