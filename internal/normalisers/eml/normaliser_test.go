package eml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestNormaliser_PlainMessage(t *testing.T) {
	msg := crlf(`From: billing@acme.test
To: you@example.com
Subject: =?UTF-8?Q?Invoice_=E2=84=96_7?=
Content-Type: text/plain; charset=utf-8

Amount due: 120.00
`)

	text, err := New().Extract(context.Background(), msg, "inv.eml")

	require.NoError(t, err)
	assert.Contains(t, text, "From: billing@acme.test")
	assert.Contains(t, text, "Subject: Invoice № 7")
	assert.True(t, strings.HasSuffix(text, "Amount due: 120.00"))
}

func TestNormaliser_MultipartPrefersPlainText(t *testing.T) {
	msg := crlf(`From: shop@example.com
Subject: Your receipt
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html

<p>HTML receipt</p>
--b1
Content-Type: text/plain
Content-Transfer-Encoding: quoted-printable

Thank you for shopping=
 with us
--b1--
`)

	text, err := New().Extract(context.Background(), msg, "r.eml")

	require.NoError(t, err)
	assert.Contains(t, text, "Thank you for shopping with us")
	assert.NotContains(t, text, "HTML receipt")
}

func TestNormaliser_HTMLOnlyBase64(t *testing.T) {
	// "<p>Balance 10</p>"
	msg := crlf(`Subject: Statement
Content-Type: multipart/mixed; boundary=outer

--outer
Content-Type: text/html
Content-Transfer-Encoding: base64

PHA+QmFsYW5jZSAxMDwvcD4=
--outer--
`)

	text, err := New().Extract(context.Background(), msg, "s.eml")

	require.NoError(t, err)
	assert.Equal(t, "Subject: Statement\n\nBalance 10", text)
}

func TestNormaliser_NotAnEmail(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("no headers here"), "x.eml")

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
