package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var catalogYAML = `
messages:
  zebra:
    text: Stripes
    action: OPEN
    trigger: [ALWAYS]
  apple:
    text: "**Red**"
    action: https://example.com/apple
    style: URGENT
    trigger:
      - ALWAYS
      - NEW_USER
    isControl: true
  mango:
    action: OPEN
    trigger: [ALWAYS]
    maxDisplayCount: 9
styles:
  URGENT:
    priority: 100
    maxDisplayCount: 10
actions:
  OPEN: app://open
triggers:
  ALWAYS: "true"
  NEW_USER: "days_since_install < 7"
messageUnderExperiment: apple
onControl: show-none
`

func defIds(ds MessageDefs) []string {
	acc := make([]string, 0, len(ds))
	for _, d := range ds {
		acc = append(acc, d.Id)
	}
	return acc
}

func TestParseCatalogYAML(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"zebra", "apple", "mango"}, defIds(c.Messages)); diff != "" {
		t.Fatal(diff)
	}
	apple, have := c.Messages.Get("apple")
	if !have {
		t.Fatal("no apple")
	}
	want := &MessageData{
		Text:      "**Red**",
		Action:    "https://example.com/apple",
		Style:     "URGENT",
		Trigger:   []string{"ALWAYS", "NEW_USER"},
		IsControl: true,
	}
	if diff := cmp.Diff(want, apple); diff != "" {
		t.Fatal(diff)
	}
	if c.OnControl != ShowNone {
		t.Fatalf("onControl %q", c.OnControl)
	}
	if c.MessageUnderExperiment != "apple" {
		t.Fatalf("messageUnderExperiment %q", c.MessageUnderExperiment)
	}
	if p := c.Style("URGENT").Priority; p != 100 {
		t.Fatalf("priority %d", p)
	}
	if mango, _ := c.Messages.Get("mango"); mango.MaxDisplayCount != 9 {
		t.Fatalf("maxDisplayCount %d", mango.MaxDisplayCount)
	}
}

func TestParseCatalogJSON(t *testing.T) {
	src := `{"messages":{"b":{"action":"X","trigger":["T"]},"a":{"action":"X","trigger":["T"]},"c":{"action":"X","trigger":["T"]}},
"actions":{"X":"http://x"},"triggers":{"T":"true"}}`

	c, err := ParseCatalog([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, defIds(c.Messages)); diff != "" {
		t.Fatal(diff)
	}
	if c.OnControl != DefaultControlBehavior {
		t.Fatalf("onControl %q", c.OnControl)
	}

	// Order survives a round trip.
	js, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var e Catalog
	if err = json.Unmarshal(js, &e); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(defIds(c.Messages), defIds(e.Messages)); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseCatalogFlowYAML(t *testing.T) {
	// Not JSON, so it's YAML.
	src := `{messages: {b: {action: X, trigger: [T]}, a: {action: X, trigger: [T]}}, onControl: show-none}`
	c, err := ParseCatalog([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, defIds(c.Messages)); diff != "" {
		t.Fatal(diff)
	}
	if c.OnControl != ShowNone {
		t.Fatalf("onControl %q", c.OnControl)
	}

	// JSON is typed strictly.
	if _, err = ParseCatalog([]byte(`{"messages":{"a":{"action":5}}}`)); err == nil {
		t.Fatal("wanted an error")
	}
}

func TestParseCatalogDuplicateIds(t *testing.T) {
	src := `{"messages":{"a":{"action":"one"},"b":{"action":"x"},"a":{"action":"two"}}}`
	c, err := ParseCatalog([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, defIds(c.Messages)); diff != "" {
		t.Fatal(diff)
	}
	if a, _ := c.Messages.Get("a"); a.Action != "two" {
		t.Fatalf("action %q", a.Action)
	}
}

func TestParseCatalogBadControl(t *testing.T) {
	_, err := ParseCatalog([]byte("onControl: show-everything\n"))
	if err == nil {
		t.Fatal("wanted an error")
	}

	var c Catalog
	err = json.Unmarshal([]byte(`{"onControl":"show-everything"}`), &c)
	var ucb *UnknownControlBehavior
	if !errors.As(err, &ucb) {
		t.Fatalf("wanted %T, got %v", ucb, err)
	}
}

func TestNewMessageDefs(t *testing.T) {
	if _, err := NewMessageDefs("a"); err == nil {
		t.Fatal("wanted an error")
	}
	if _, err := NewMessageDefs(1, &MessageData{}); err == nil {
		t.Fatal("wanted an error")
	}
	if _, err := NewMessageDefs("a", "b"); err == nil {
		t.Fatal("wanted an error")
	}
}

func TestSanitizeAction(t *testing.T) {
	actions := map[string]string{
		"OPEN":  "app://open",
		"BLANK": " ",
		"EMPTY": "",
	}
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"http://example.com", "http://example.com", true},
		{"https://example.com/{uuid}", "https://example.com/{uuid}", true},
		{"httpfoo", "httpfoo", true},
		{"OPEN", "app://open", true},
		{"BLANK", "", false},
		{"EMPTY", "", false},
		{"CLOSE", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := SanitizeAction(tt.raw, actions)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SanitizeAction(%q) = %q, %v", tt.raw, got, ok)
		}
	}
}

func TestSanitizeTriggers(t *testing.T) {
	triggers := map[string]string{
		"A":     "a == 1",
		"B":     "b",
		"BLANK": "\t",
	}
	got, ok := SanitizeTriggers([]string{"B", "A"}, triggers)
	if !ok {
		t.Fatal("not ok")
	}
	if diff := cmp.Diff([]string{"b", "a == 1"}, got); diff != "" {
		t.Fatal(diff)
	}
	for _, aliases := range [][]string{{"A", "C"}, {"BLANK"}, {"C"}} {
		if got, ok := SanitizeTriggers(aliases, triggers); ok || got != nil {
			t.Errorf("SanitizeTriggers(%v) = %v, %v", aliases, got, ok)
		}
	}
}

func TestIsUnderExperiment(t *testing.T) {
	msg := func(id string, control bool) *Message {
		return &Message{
			Id:   id,
			Data: &MessageData{IsControl: control},
		}
	}
	tests := []struct {
		m    *Message
		expr string
		want bool
	}{
		{msg("a", false), "", false},
		{msg("a", false), "   ", false},
		{msg("a", true), "", true},
		{msg("a", true), "b", true},
		{msg("a", false), "a", true},
		{msg("ab", false), "a", false},
		{msg("exp-1", false), "exp-", true},
		{msg("exp-", false), "exp-", true},
		{msg("exp", false), "exp-", false},
		{msg("other-1", false), "exp-", false},
	}
	for _, tt := range tests {
		if got := IsUnderExperiment(tt.m, tt.expr); got != tt.want {
			t.Errorf("IsUnderExperiment(%s, %q) = %v", tt.m.Id, tt.expr, got)
		}
	}
}
