// Package advisory turns farm-survey input into a model prompt and turns the
// model's answer back into a fixed recommendation shape.
package advisory

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unknown replaces every absent or empty input value.
const Unknown = "Unknown"

// Request is a normalized advisory request: all ten fields are always set.
type Request struct {
	SoilType      string `json:"soil_type"`
	Drainage      string `json:"drainage"`
	Area          string `json:"area"`
	CropHistory   string `json:"crop_history"`
	Location      string `json:"location"`
	Weather       string `json:"weather"`
	Irrigation    string `json:"irrigation"`
	Budget        string `json:"budget"`
	PreferredCrop string `json:"preferred_crop"`
	Scheme        string `json:"scheme"`
}

type section struct {
	heading string
	fields  []Field
}

// Field describes one recognized input key.
type Field struct {
	Key    string
	Alias  string
	Label  string
	suffix string
	get    func(*Request) *string
}

var sections = []section{
	{
		heading: "🌱 Soil & Land Characteristics:",
		fields: []Field{
			{Key: "soil_type", Alias: "soilType", Label: "Soil Type", get: func(r *Request) *string { return &r.SoilType }},
			{Key: "drainage", Label: "Drainage Capacity", get: func(r *Request) *string { return &r.Drainage }},
			{Key: "area", Label: "Area Available", suffix: " acres", get: func(r *Request) *string { return &r.Area }},
			{Key: "crop_history", Alias: "cropHistory", Label: "Previous Crop History", get: func(r *Request) *string { return &r.CropHistory }},
		},
	},
	{
		heading: "📍 Location & Weather:",
		fields: []Field{
			{Key: "location", Label: "Location", get: func(r *Request) *string { return &r.Location }},
			{Key: "weather", Label: "Weather", get: func(r *Request) *string { return &r.Weather }},
		},
	},
	{
		heading: "🌾 Crop & Resource Preferences:",
		fields: []Field{
			{Key: "irrigation", Label: "Irrigation", get: func(r *Request) *string { return &r.Irrigation }},
			{Key: "budget", Label: "Budget", get: func(r *Request) *string { return &r.Budget }},
			{Key: "preferred_crop", Alias: "preferredCrop", Label: "Preferred Crop Type", get: func(r *Request) *string { return &r.PreferredCrop }},
			{Key: "scheme", Label: "Scheme Eligibility", get: func(r *Request) *string { return &r.Scheme }},
		},
	},
}

// Fields lists the recognized inputs in prompt order.
func Fields() []Field {
	var out []Field
	for _, s := range sections {
		out = append(out, s.fields...)
	}
	return out
}

// Normalize never fails: missing, empty or non-scalar values become Unknown.
// The canonical snake_case key wins over its camelCase alias.
func Normalize(raw map[string]any) Request {
	var req Request
	for _, f := range Fields() {
		v := stringify(raw[f.Key])
		if v == "" && f.Alias != "" {
			v = stringify(raw[f.Alias])
		}
		if v == "" {
			v = Unknown
		}
		*f.get(&req) = v
	}
	return req
}

// DecodeInput parses a request body. An empty body or a JSON value that is
// not an object gives an empty map; malformed JSON is an error.
func DecodeInput(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return raw, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// BuildPrompt renders req into the fixed three-section prompt. The output is a
// pure function of req and region.
func BuildPrompt(req Request, region string) string {
	var b strings.Builder
	b.WriteString("You are an agricultural advisor AI. Based on the following farm inputs, ")
	b.WriteString("suggest the top 3 suitable crop types for the upcoming season in ")
	b.WriteString(region)
	b.WriteString(":\n")

	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(s.heading)
		b.WriteString("\n")
		for _, f := range s.fields {
			b.WriteString("- ")
			b.WriteString(f.Label)
			b.WriteString(": ")
			b.WriteString(*f.get(&req))
			b.WriteString(f.suffix)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nPlease recommend 3 crops suitable for small to medium farms. Include brief reasoning for each.\n")
	b.WriteString(`Respond with only a JSON object of the form {"crops":[{"name":"...","reason":"..."}]} containing exactly 3 entries.`)
	b.WriteString("\n")
	return b.String()
}

// PromptKey identifies a prompt for caching.
func PromptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
