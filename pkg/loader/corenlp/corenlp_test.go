package corenlp

import (
	"reflect"
	"testing"
)

func TestParseEntities(t *testing.T) {
	input := `{
		"sentences": [
			{"entitymentions": [
				{"text": "Abraham Lincoln", "ner": "PERSON"},
				{"text": "American", "ner": "NATIONALITY"},
				{"text": "1861", "ner": "DATE"}
			]},
			{"entitymentions": [
				{"text": "Union Army", "ner": "ORGANIZATION"},
				{"text": "Abraham Lincoln", "ner": "PERSON"},
				{"text": "Gettysburg", "ner": "LOCATION"},
				{"text": "president", "ner": "TITLE"}
			]},
			{"tokens": []}
		]
	}`
	got, err := ParseEntities([]byte(input))
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}
	want := []string{"Abraham Lincoln", "American", "Union Army", "Gettysburg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseEntities() = %v, want %v", got, want)
	}
}

func TestParseEntities_Invalid(t *testing.T) {
	if _, err := ParseEntities([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
	got, err := ParseEntities([]byte(`{}`))
	if err != nil || len(got) != 0 {
		t.Fatalf("empty document = %v, %v", got, err)
	}
}
