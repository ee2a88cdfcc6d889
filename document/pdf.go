// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
)

var _ Codec = PDF{}

// PDF extracts text from PDF files and synthesizes fresh single-column PDFs from redacted
// text. Synthesis is best effort: a plain-text artifact is written before it is attempted
// and stands in for the document whenever it fails.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

func (PDF) Name() string {
	return FormatPDF
}

// Extract reads every page in order, normalizing each page's text before joining them with
// single line breaks.
func (PDF) Extract(path string) (string, error) {
	text, err := pdfText(path)
	if err != nil {
		return "", ExtractError{path: path, err: err}
	}
	return text, nil
}

// Write persists the redacted text twice over: a plain-text sibling first, which cannot
// fail under normal disk conditions, then the synthesized PDF. Synthesis failures discard
// any partial output and promote the text artifact to deliverable.
func (p PDF) Write(originalPath string, outputPath string, text string) (Result, error) {
	fallbackPath := pdfFallbackPath(outputPath)

	if err := os.WriteFile(fallbackPath, []byte(text), 0644); err != nil {
		return Result{}, WriteFallbackError{path: fallbackPath, err: err}
	}

	if err := pdfSynthesize(outputPath, text); err != nil {
		_ = os.Remove(outputPath)
		return Result{
			OutputPath:   fallbackPath,
			FallbackPath: fallbackPath,
			Succeeded:    true,
			UsedFallback: true,
			Error:        err.Error(),
		}, nil
	}

	return Result{OutputPath: outputPath, FallbackPath: fallbackPath, Succeeded: true}, nil
}

// pdfText concatenates the plain text of each page. The parser panics on some malformed
// files, so the recover converts those into ordinary extraction errors.
func pdfText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		pages = append(pages, normalizePage(content))
	}
	return strings.Join(pages, "\n"), nil
}

var (
	tabRunRe   = regexp.MustCompile(`\t+`)
	spaceRunRe = regexp.MustCompile(` {2,}`)
	lineEndRe  = regexp.MustCompile(`\r\n|\r|\n`)
	blankRunRe = regexp.MustCompile(`\n\s*\n`)
)

// normalizePage strips the layout artifacts that plain-text extraction interleaves with the
// content: runs of tabs and spaces, mangled ligatures, smart quotes, and mixed line
// endings. Left in place they would corrupt pattern matching on the text.
func normalizePage(text string) string {
	if text == "" {
		return text
	}
	text = tabRunRe.ReplaceAllString(text, " ")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "ﬁ", "fi")
	text = strings.ReplaceAll(text, "�", "fi")
	text = strings.ReplaceAll(text, "’", "'")
	text = lineEndRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// pdfSynthesize renders the text into a fresh A4 document under a fixed title line. Blank
// lines become vertical spacing rather than empty paragraphs. Stale output is removed first
// so a leftover from an earlier run can never be mistaken for this one's result.
func pdfSynthesize(outputPath string, text string) error {
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, tr("REDACTED DOCUMENT"), "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			doc.Ln(3)
			continue
		}
		doc.MultiCell(0, 5, tr(line), "", "L", false)
		doc.Ln(1)
	}

	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return err
	}
	return pdfVerify(outputPath)
}

// pdfVerify confirms the synthesized file exists with content. The length check only means
// something once the writer has flushed and closed, so it runs strictly after
// OutputFileAndClose returns.
func pdfVerify(outputPath string) error {
	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return fmt.Errorf("synthesized pdf is empty, path=%s", outputPath)
	}
	return nil
}

func pdfFallbackPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_redacted.txt"
}
