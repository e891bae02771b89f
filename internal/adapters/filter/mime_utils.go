package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTextFromMessage extracts the text content from an email message.
// Multipart messages prefer text/plain parts; text/html parts are converted
// to plain text when nothing better is available.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		if strings.Contains(strings.ToLower(contentType), "text/html") {
			return htmlToText(string(bodyBytes)), nil
		}
		return string(bodyBytes), nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var plainContent bytes.Buffer
	var htmlContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partContentType := strings.ToLower(part.Header.Get("Content-Type"))
		switch {
		case strings.Contains(partContentType, "text/plain"):
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			plainContent.Write(partBytes)
			plainContent.WriteString("\n")
		case strings.Contains(partContentType, "text/html"):
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			htmlContent.Write(partBytes)
		}
		// Attachments and nested multiparts are skipped
	}

	if plainContent.Len() > 0 {
		return plainContent.String(), nil
	}
	if htmlContent.Len() > 0 {
		return htmlToText(htmlContent.String()), nil
	}
	return "[No text content found in multipart message]", nil
}

// htmlToText strips markup from an HTML body, falling back to the raw
// input when it does not parse
func htmlToText(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// decodeEncodedHeader decodes RFC 2047 encoded-words in a header value
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}
