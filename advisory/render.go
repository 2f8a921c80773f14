package advisory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// RecommendationCount is how many crops a structured answer must contain.
const RecommendationCount = 3

const EmptyResponseWarning = "⚠️ The model returned an empty response. Please try again."

var ErrEmptyResponse = errors.New("model returned an empty response")

type Crop struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result is either exactly RecommendationCount crops or, when the model did
// not answer in the agreed shape, its raw text.
type Result struct {
	Crops []Crop `json:"crops,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

func (r Result) Structured() bool {
	return len(r.Crops) == RecommendationCount
}

// Parse reads the model's text. Only an empty text is an error; anything that
// is not the agreed JSON shape comes back as a raw Result.
func Parse(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyResponse
	}
	crops, ok := decodeCrops(stripFence(text))
	if !ok {
		return Result{Raw: text}, nil
	}
	return Result{Crops: crops}, nil
}

func decodeCrops(payload string) ([]Crop, bool) {
	var body struct {
		Crops []Crop `json:"crops"`
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&body); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	if len(body.Crops) != RecommendationCount {
		return nil, false
	}
	for i, c := range body.Crops {
		c.Name = strings.TrimSpace(c.Name)
		c.Reason = strings.TrimSpace(c.Reason)
		if c.Name == "" || c.Reason == "" {
			return nil, false
		}
		body.Crops[i] = c
	}
	return body.Crops, true
}

// stripFence removes one Markdown code fence wrapped around the whole text,
// e.g. ```json ... ```.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	body := strings.TrimSuffix(s, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatHTML:
		return f, true
	default:
		return "", false
	}
}

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

var cardsTemplate = template.Must(template.New("cards").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Crop Recommendations</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f6f8f3; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; }
.card { background: #fff; border-radius: 8px; padding: 1rem; width: 18rem; box-shadow: 0 1px 4px rgba(0,0,0,.15); }
.card h3 { margin-top: 0; color: #2e7d32; }
</style>
</head>
<body>
<h2>🌾 Recommended Crops</h2>
<div class="cards">
{{- range .}}
<div class="card"><h3>{{.Name}}</h3><p>{{.Reason}}</p></div>
{{- end}}
</div>
</body>
</html>
`))

// Render produces the body for the chosen surface. Unstructured results are
// passed through as plain text for text and html, and wrapped as
// {"text": ...} for json.
func Render(res Result, format Format) (contentType string, body []byte, err error) {
	switch format {
	case FormatJSON:
		var v any
		if res.Structured() {
			v = map[string][]Crop{"crops": res.Crops}
		} else {
			v = map[string]string{"text": res.Raw}
		}
		body, err = json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("encode result: %w", err)
		}
		return contentTypeJSON, body, nil

	case FormatHTML:
		if !res.Structured() {
			return contentTypeText, []byte(res.Raw), nil
		}
		var buf bytes.Buffer
		if err := cardsTemplate.Execute(&buf, res.Crops); err != nil {
			return "", nil, fmt.Errorf("render cards: %w", err)
		}
		return contentTypeHTML, buf.Bytes(), nil

	default:
		if !res.Structured() {
			return contentTypeText, []byte(res.Raw), nil
		}
		return contentTypeText, []byte(PlainText(res.Crops)), nil
	}
}

// PlainText lists crops as "1. Name: reason" lines.
func PlainText(crops []Crop) string {
	var b strings.Builder
	for i, c := range crops {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, c.Name, c.Reason)
	}
	return b.String()
}
