package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
)

var errTooLarge = errors.New("response body exceeds limit")

// Payload is a successfully received upstream body. JSON is set when the
// upstream declared a JSON content type and sent a non-empty, valid body;
// otherwise Body is plain text.
type Payload struct {
	Status      int
	ContentType string
	Body        []byte
	JSON        bool
}

func parsePayload(status int, contentType string, body []byte) (*Payload, error) {
	p := &Payload{Status: status, ContentType: contentType, Body: body}
	if isJSONContentType(contentType) && len(bytes.TrimSpace(body)) > 0 {
		if !json.Valid(body) {
			return p, errors.New("body is not valid JSON")
		}
		p.JSON = true
	}
	return p, nil
}

// Decode unmarshals a JSON payload into v. An empty body leaves v untouched.
func (p *Payload) Decode(v any) error {
	if len(bytes.TrimSpace(p.Body)) == 0 {
		return nil
	}
	if !p.JSON {
		return fmt.Errorf("expected JSON, got %q", p.ContentType)
	}
	return json.Unmarshal(p.Body, v)
}

func (p *Payload) Text() string {
	return string(p.Body)
}

// Value is the payload in a form that embeds into a JSON document: raw JSON
// for JSON bodies, a string otherwise.
func (p *Payload) Value() any {
	if p.JSON {
		return json.RawMessage(p.Body)
	}
	return p.Text()
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// readLimited reads r but gives up as soon as more than limit bytes arrive.
// A declared length above the limit fails before anything is read.
func readLimited(r io.Reader, declared, limit int64) ([]byte, error) {
	if declared > limit {
		return nil, errTooLarge
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errTooLarge
	}
	return body, nil
}
