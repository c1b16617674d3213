package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

type generationShape int

const (
	shapeList generationShape = iota + 1
	shapeObject
	shapeString
)

// generationResponse is the decoded form of the service's generation output,
// which arrives as [{generated_text}], {generated_text} or a bare string.
type generationResponse struct {
	shape generationShape
	text  string
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

var roleEcho = regexp.MustCompile(`(?i)^\s*assistant:\s*`)

// decodeGeneration normalizes every known response shape into plain text.
func decodeGeneration(raw []byte) (generationResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return generationResponse{}, errors.New("empty body")
	}

	switch trimmed[0] {
	case '[':
		var list []generatedText
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return generationResponse{}, err
		}
		out := generationResponse{shape: shapeList}
		if len(list) > 0 {
			out.text = list[0].GeneratedText
		}
		return out, nil
	case '{':
		var obj generatedText
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return generationResponse{}, err
		}
		return generationResponse{shape: shapeObject, text: obj.GeneratedText}, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return generationResponse{}, err
		}
		return generationResponse{shape: shapeString, text: s}, nil
	default:
		return generationResponse{}, errors.New("unrecognized generation payload")
	}
}

// CleanGeneration strips a leading role label the model may echo and trims
// surrounding whitespace.
func CleanGeneration(text string) string {
	return strings.TrimSpace(roleEcho.ReplaceAllString(text, ""))
}
