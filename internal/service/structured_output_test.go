package service

import (
	"reflect"
	"testing"
)

type sampleQuestions struct {
	Questions []struct {
		Question string            `json:"question"`
		Options  map[string]string `json:"options"`
	} `json:"questions"`
}

const bareQuestionsJSON = `{"questions": [{"question": "Pick one", "options": {"A": "a", "B": "b", "C": "c", "D": "d"}}]}`

func TestDecodeStructured_DirectJSON(t *testing.T) {
	got := DecodeStructured[sampleQuestions]("  " + bareQuestionsJSON + "\n")
	if !got.OK() {
		t.Fatalf("expected parsed result, got %+v", got)
	}
	if len(got.Value.Questions) != 1 || got.Value.Questions[0].Options["C"] != "c" {
		t.Fatalf("unexpected value: %+v", got.Value)
	}
}

func TestDecodeStructured_SalvagesSurroundingProse(t *testing.T) {
	bare := DecodeStructured[sampleQuestions](bareQuestionsJSON)
	wrapped := DecodeStructured[sampleQuestions]("Sure! Here is the JSON: " + bareQuestionsJSON + " Hope that helps!")

	if !wrapped.OK() {
		t.Fatalf("expected salvage to succeed, got %+v", wrapped)
	}
	if !reflect.DeepEqual(bare.Value, wrapped.Value) {
		t.Fatalf("salvaged value differs: %+v vs %+v", wrapped.Value, bare.Value)
	}
}

func TestDecodeStructured_CodeFence(t *testing.T) {
	got := DecodeStructured[sampleQuestions]("```json\n" + bareQuestionsJSON + "\n```")
	if !got.OK() {
		t.Fatalf("expected fenced json to parse, got %+v", got)
	}
}

func TestDecodeStructured_TwoObjectsUsesFirst(t *testing.T) {
	got := DecodeStructured[sampleQuestions](bareQuestionsJSON + "\n\nAlternative: {\"questions\": []}")
	if !got.OK() || len(got.Value.Questions) != 1 {
		t.Fatalf("expected first balanced object, got %+v", got)
	}
}

func TestDecodeStructured_Unparseable(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"no json here",
		"{ broken",
		`prefix {"questions": [ }`,
	}
	for _, raw := range tests {
		got := DecodeStructured[sampleQuestions](raw)
		if got.OK() {
			t.Fatalf("expected unparseable for %q, got %+v", raw, got)
		}
		if got.Raw != raw {
			t.Fatalf("expected raw text to be preserved, got %q", got.Raw)
		}
	}
}

func TestExtractFirstJSONObject_IgnoresBracesInStrings(t *testing.T) {
	input := `text {"a": "value with } brace", "b": {"c": "\"quoted\""}} trailing }`
	want := `{"a": "value with } brace", "b": {"c": "\"quoted\""}}`
	if got := extractFirstJSONObject(input); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := extractFirstJSONObject("no object"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

type keyedQuestions struct {
	Questions *[]string `json:"questions"`
}

func (k keyedQuestions) present() bool { return k.Questions != nil }

func TestDecodeStructured_RequiresKeyWhenPayloadAsks(t *testing.T) {
	for _, raw := range []string{"null", "{}", `{"other": 1}`, `[{"other": 1}]`} {
		if got := DecodeStructured[keyedQuestions](raw); got.OK() {
			t.Fatalf("%q: expected unparseable, got %+v", raw, got)
		}
	}

	got := DecodeStructured[keyedQuestions](`{"first": true} {"questions": ["a"]}`)
	if got.OK() {
		t.Fatalf("expected first object without key to be rejected, got %+v", got)
	}

	got = DecodeStructured[keyedQuestions]("Sure: {\"questions\": [\"a\"]}")
	if !got.OK() || len(*got.Value.Questions) != 1 {
		t.Fatalf("expected keyed payload to parse, got %+v", got)
	}
}
