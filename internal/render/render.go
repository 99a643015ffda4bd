// Package render produces the HTML representation of a document for preview,
// download and email embedding. Rendering is pure: identical inputs (including
// the generatedAt timestamp) produce byte-identical output.
package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	"legalflow/internal/models"
)

var tagRE = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips every HTML tag from user-entered text and escapes what
// remains. Form data is untrusted; the output is later inserted as raw HTML
// and mailed, so nothing executable may survive.
func Sanitize(text string) string {
	return html.EscapeString(tagRE.ReplaceAllString(text, ""))
}

// Document renders the full HTML artifact for a document at the given status.
// companySignature is passed separately so a preview can show an uncommitted
// signature before it is persisted.
func Document(doc *models.Document, status models.Status, companySignature string, generatedAt time.Time) string {
	templateName := doc.TemplateName
	if templateName == "" {
		templateName = "Legal Document"
	}
	documentID := doc.ID
	if documentID == "" {
		documentID = "DRAFT"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("    <meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", Sanitize(templateName))
	b.WriteString(`    <style>
        body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
        .header { text-align: center; margin-bottom: 30px; }
        .content { margin-bottom: 30px; }
        .terms { background: #f9f9f9; padding: 20px; border-left: 4px solid #ccc; }
        .signature-section { margin-top: 50px; }
        .signature-block { margin: 30px 0; padding: 20px; border: 1px solid #ddd; }
        .footer { margin-top: 50px; font-size: 12px; color: #666; }
    </style>
`)
	b.WriteString("</head>\n<body>\n")

	b.WriteString("    <div class=\"header\">\n")
	fmt.Fprintf(&b, "        <h1>%s</h1>\n", Sanitize(templateName))
	fmt.Fprintf(&b, "        <p>Document ID: %s</p>\n", Sanitize(documentID))
	fmt.Fprintf(&b, "        <p>Status: %s</p>\n", Sanitize(status.Label()))
	b.WriteString("    </div>\n")

	b.WriteString("    <div class=\"content\">\n")
	values := doc.FormValues()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "        <p><strong>%s:</strong> %s</p>\n", Sanitize(humanizeKey(key)), Sanitize(values[key]))
	}
	b.WriteString("    </div>\n")

	b.WriteString(`    <div class="terms">
        <p>This agreement constitutes a legally binding contract between the parties mentioned above.
        All terms and conditions outlined herein are agreed upon by both parties and shall be
        governed by applicable laws and regulations.</p>
    </div>
`)

	b.WriteString("    <div class=\"signature-section\">\n        <h3>Signatures</h3>\n")
	writeCompanySignature(&b, doc, status, companySignature)
	writeClientSignature(&b, doc, status)
	b.WriteString("    </div>\n")

	b.WriteString("    <div class=\"footer\">\n")
	b.WriteString("        <p>This document was generated electronically and is valid without a physical signature.</p>\n")
	fmt.Fprintf(&b, "        <p>Generated on: %s</p>\n", Sanitize(generatedAt.UTC().Format("2006-01-02 15:04:05 MST")))
	b.WriteString("    </div>\n</body>\n</html>\n")

	return b.String()
}

func writeCompanySignature(b *strings.Builder, doc *models.Document, status models.Status, companySignature string) {
	b.WriteString("        <div class=\"signature-block\">\n            <h4>Company Signature</h4>\n")
	if companySignature != "" {
		fmt.Fprintf(b, "            <p>%s</p>\n", Sanitize(companySignature))
		fmt.Fprintf(b, "            <p>Date: %s</p>\n", Sanitize(doc.CreatedAt.UTC().Format("2006-01-02")))
	} else if status == models.StatusDraft {
		b.WriteString("            <p><em>[Company Signature Required]</em></p>\n")
	} else {
		b.WriteString("            <p><em>Pending signature...</em></p>\n")
	}
	b.WriteString("        </div>\n")
}

func writeClientSignature(b *strings.Builder, doc *models.Document, status models.Status) {
	b.WriteString("        <div class=\"signature-block\">\n            <h4>Client Signature</h4>\n")
	if status == models.StatusFullySigned && doc.ClientSignature != "" {
		fmt.Fprintf(b, "            <p>%s</p>\n", Sanitize(doc.ClientSignature))
		fmt.Fprintf(b, "            <p>Date: %s</p>\n", Sanitize(doc.UpdatedAt.UTC().Format("2006-01-02")))
	} else if status == models.StatusSentForSignature {
		b.WriteString("            <p><em>[Awaiting Client Signature]</em></p>\n")
	} else {
		b.WriteString("            <p><em>Pending signature...</em></p>\n")
	}
	b.WriteString("        </div>\n")
}

// Filename builds the download name {templateName}-{employeeName|document}-{status}.html.
func Filename(doc *models.Document, status models.Status) string {
	name := doc.FormValue("employeeName")
	if name == "" {
		name = "document"
	}
	parts := []string{doc.TemplateName, name, string(status)}
	for i, part := range parts {
		parts[i] = sanitizeFilePart(part)
	}
	return strings.Join(parts, "-") + ".html"
}

var unsafeFileRE = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeFilePart(part string) string {
	part = unsafeFileRE.ReplaceAllString(strings.TrimSpace(part), "-")
	return strings.Trim(part, "-")
}

// humanizeKey turns camelCase form keys into labels, employeeName -> Employee Name.
func humanizeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteRune(' ')
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
