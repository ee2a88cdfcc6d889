// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	docxDocumentPath = "word/document.xml"
	docxNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var _ Codec = Docx{}

// Docx reads and writes Office Open XML word-processing documents. The package is a zip
// archive; all text a reader sees lives in the word/document.xml part.
type Docx struct{}

func NewDocx() *Docx {
	return &Docx{}
}

func (Docx) Name() string {
	return FormatDocx
}

// Extract walks the document body in order and returns one line per paragraph. Paragraphs
// with no runs contribute an empty line, so the paragraph count survives the round trip.
func (Docx) Extract(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", ExtractError{path: path, err: err}
	}
	defer r.Close()

	var doc *zip.File
	for _, f := range r.File {
		if f.Name == docxDocumentPath {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", ExtractError{path: path, err: fmt.Errorf("missing %s entry", docxDocumentPath)}
	}

	rc, err := doc.Open()
	if err != nil {
		return "", ExtractError{path: path, err: err}
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", ExtractError{path: path, err: err}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// Write rebuilds the document body from the redacted text inside a duplicate of the
// original package. A structural failure falls back to a plain-text artifact next to the
// intended output.
func (d Docx) Write(originalPath string, outputPath string, text string) (Result, error) {
	if err := docxRebuild(originalPath, outputPath, text); err != nil {
		return writeFallback(outputPath, docxFallbackPath(outputPath), text, err)
	}
	return Result{OutputPath: outputPath, Succeeded: true}, nil
}

// docxParagraphs collects the text of each top-level body paragraph: character data inside
// w:t fragments, tabs and breaks mapped to their plain-text equivalents. Paragraphs inside
// tables belong to their cells, not the body, and are skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	var (
		paragraphs []string
		text       strings.Builder
		inPara     bool
		inText     bool
		tableDepth int
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != docxNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				if tableDepth == 0 {
					inPara = true
					text.Reset()
				}
			case "t":
				inText = inPara
			case "tab":
				if inPara {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != docxNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				if tableDepth == 0 && inPara {
					paragraphs = append(paragraphs, text.String())
					inPara = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// docxRebuild copies the original package entry by entry, replacing only the document part.
// Styles, numbering, media, and relationships carry over untouched.
func docxRebuild(originalPath string, outputPath string, text string) error {
	src, err := zip.OpenReader(originalPath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range src.File {
		if f.Name == docxDocumentPath {
			continue
		}
		if err := zw.Copy(f); err != nil {
			return err
		}
	}

	w, err := zw.Create(docxDocumentPath)
	if err != nil {
		return err
	}
	if _, err = w.Write(docxDocumentXML(text)); err != nil {
		return err
	}

	// The zip central directory and the file itself both have to flush cleanly before the
	// output can be trusted.
	if err = zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// docxDocumentXML renders a minimal document part: one paragraph holding a single run per
// line of text. Empty lines become empty paragraphs so the visual line count of the
// original survives, though its styling does not.
func docxDocumentXML(text string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + docxNamespace + `"><w:body>`)
	for _, line := range splitLines(text) {
		if line == "" {
			b.WriteString(`<w:p/>`)
			continue
		}
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(line))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.Bytes()
}

// splitLines splits on every line ending variant a document might carry.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func docxFallbackPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_fallback.txt"
}
