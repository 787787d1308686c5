// Package eml extracts headers and body text from RFC 5322 email files.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles .eml messages. Emailed invoices and receipts often
// carry the document in the body.
type Normaliser struct{}

// New creates a new email normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the suffixes this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".eml"}
}

// Extract returns From, To, Date and Subject lines followed by the body.
// Plain text parts are preferred over HTML ones.
func (n *Normaliser) Extract(_ context.Context, content []byte, filename string) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not an email: %v", domain.ErrUnsupportedFormat, filename, err)
	}

	var out strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&out, "%s: %s\n", h, v)
		}
	}

	body, err := extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", err
	}
	if out.Len() > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(body)
	return strings.TrimSpace(out.String()), nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value on error.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func extractBody(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(r, params["boundary"])
	}

	body, err := io.ReadAll(decodeTransfer(r, encoding))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if mediaType == "text/html" {
		return html.Strip(string(body)), nil
	}
	return strings.TrimSpace(string(body)), nil
}

func extractMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed multipart body: %v", domain.ErrUnsupportedFormat, err)
		}

		ct := part.Header.Get("Content-Type")
		mediaType, _, perr := mime.ParseMediaType(ct)
		if perr != nil {
			mediaType = "application/octet-stream"
		}

		switch {
		case mediaType == "text/plain", mediaType == "text/html", strings.HasPrefix(mediaType, "multipart/"):
			text, err := extractBody(ct, part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				return "", err
			}
			if text == "" {
				continue
			}
			if mediaType == "text/html" {
				htmlParts = append(htmlParts, text)
			} else {
				textParts = append(textParts, text)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// decodeTransfer undoes the body's transfer encoding. multipart.Reader
// already decodes quoted-printable parts and drops their header.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
