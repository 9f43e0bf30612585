package mail

import (
	"io"
	"strings"
	"testing"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawInvoiceMail = `From: faktura@nordiskutstyr.no
To: regnskap@example.com
Subject: Faktura 2024-0042
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Se vedlagt faktura.
--b1
Content-Type: image/png; name="skannet-side-1.png"
Content-Disposition: inline
Content-Transfer-Encoding: base64

iVBORw0KGgo=
--b1
Content-Type: application/pdf
Content-Disposition: attachment; filename="faktura.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--b1
Content-Type: application/octet-stream
Content-Disposition: attachment; filename="oppsett.exe"
Content-Transfer-Encoding: base64

TVo=
--b1--
`

func collectAttachments(t *testing.T, raw string) []Attachment {
	t.Helper()
	mr, err := gomail.CreateReader(strings.NewReader(strings.ReplaceAll(raw, "\n", "\r\n")))
	require.NoError(t, err)

	var out []Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if att, ok := decodePart(part); ok {
			out = append(out, att)
		}
	}
	return out
}

func TestDecodePartKeepsAllowedParts(t *testing.T) {
	atts := collectAttachments(t, rawInvoiceMail)
	require.Len(t, atts, 2)

	// inline scan named only through the Content-Type name parameter
	assert.Equal(t, "skannet-side-1.png", atts[0].Filename)
	assert.Equal(t, "image/png", atts[0].ContentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, atts[0].Data)

	assert.Equal(t, "faktura.pdf", atts[1].Filename)
	assert.Equal(t, "application/pdf", atts[1].ContentType)
	assert.Equal(t, []byte("%PDF-1.4\n"), atts[1].Data)
}

func TestDecodePartSkipsUnnamedInlineBody(t *testing.T) {
	raw := `From: a@example.com
To: b@example.com
Subject: Kvittering
MIME-Version: 1.0
Content-Type: text/plain; charset=utf-8

Ingen vedlegg her.
`
	assert.Empty(t, collectAttachments(t, raw))
}
