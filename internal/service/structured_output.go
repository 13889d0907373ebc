package service

import (
	"encoding/json"
	"strings"
)

// DecodeStatus indica si la salida del modelo pudo decodificarse.
type DecodeStatus string

const (
	DecodeParsed      DecodeStatus = "parsed"
	DecodeUnparseable DecodeStatus = "unparseable"
)

// Decoded es el resultado etiquetado del decoder: Value solo es valido con DecodeParsed.
// Raw siempre conserva el texto original del modelo.
type Decoded[T any] struct {
	Status DecodeStatus
	Value  T
	Raw    string
}

func (d Decoded[T]) OK() bool {
	return d.Status == DecodeParsed
}

// requiredField lo implementan los payloads que solo cuentan como parseados si traen su clave
// principal. JSON valido sin esa clave (null, {}, un array suelto) es unparseable.
type requiredField interface {
	present() bool
}

// DecodeStructured decodifica la respuesta del modelo en T.
// Primero intenta el texto completo; si falla, el substring entre la primera '{' y la ultima '}';
// por ultimo el primer objeto balanceado (cubre respuestas con dos objetos seguidos).
func DecodeStructured[T any](raw string) Decoded[T] {
	out := Decoded[T]{Status: DecodeUnparseable, Raw: raw}

	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF"))
	if text == "" {
		return out
	}

	candidates := []string{
		text,
		braceSpan(text),
		extractFirstJSONObject(text),
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err != nil {
			continue
		}
		if rf, ok := any(v).(requiredField); ok && !rf.present() {
			continue
		}
		out.Status = DecodeParsed
		out.Value = v
		return out
	}
	return out
}

// braceSpan devuelve el texto desde la primera '{' hasta la ultima '}', inclusive.
func braceSpan(input string) string {
	start := strings.IndexByte(input, '{')
	end := strings.LastIndexByte(input, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return input[start : end+1]
}

// extractFirstJSONObject recorre el texto respetando strings y escapes.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			switch ch {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}
