package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// Minimal TwiML builder for the call-control documents this service returns.
// It intentionally avoids any provider SDK dependency.
//
// Two documents exist: the happy path bridges the call's media to the voice
// agent over a bidirectional stream, the fallback speaks an apology and lets
// the call end.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twimlParameter `xml:"Parameter"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// StreamParameter is a connection parameter handed to the voice-agent session
// when the stream opens (e.g. the authorization credential).
type StreamParameter struct {
	Name  string
	Value string
}

// RenderAgentStream builds the call-control document that opens a
// bidirectional audio stream to the voice-agent endpoint.
func RenderAgentStream(streamURL string, params []StreamParameter) (string, error) {
	if streamURL == "" {
		return "", errors.New("telephony: stream url required")
	}

	stream := twimlStream{URL: streamURL}
	for _, p := range params {
		stream.Parameters = append(stream.Parameters, twimlParameter{Name: p.Name, Value: p.Value})
	}

	var r twimlResponse
	r.Verbs = append(r.Verbs, twimlConnect{Stream: stream})
	return encodeTwiML(r)
}

// RenderSay builds a spoken-text document, used as the fallback when the
// stream document cannot be constructed.
func RenderSay(voice, text string) (string, error) {
	if text == "" {
		return "", errors.New("telephony: say text required")
	}

	var r twimlResponse
	r.Verbs = append(r.Verbs, twimlSay{Voice: voice, Text: text})
	return encodeTwiML(r)
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
