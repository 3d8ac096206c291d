package core

// DefaultPriority is the priority of the style that's used when a
// message references a style that the Catalog doesn't define.
var DefaultPriority = 50

// DefaultMaxDisplayCount is the display budget of the default style.
var DefaultMaxDisplayCount = 5

// StyleData is the presentation class of a message.  Only the fields
// that matter for selection are here.
type StyleData struct {
	// Priority orders messages.  Higher is shown first.
	Priority int `json:"priority" yaml:"priority"`

	// MaxDisplayCount is how many times a message with this style
	// may be displayed.
	MaxDisplayCount int `json:"maxDisplayCount" yaml:"maxDisplayCount"`
}

// DefaultStyle returns a new StyleData with DefaultPriority and
// DefaultMaxDisplayCount.
func DefaultStyle() *StyleData {
	return &StyleData{
		Priority:        DefaultPriority,
		MaxDisplayCount: DefaultMaxDisplayCount,
	}
}

// MessageData is a message definition as it appears in a Catalog.
//
// Action, Style, and Trigger are references that need to be resolved
// against the Catalog before the message is usable.
type MessageData struct {
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	ButtonLabel string `json:"buttonLabel,omitempty" yaml:"buttonLabel,omitempty"`

	// Action is either a URL (starting with "http") or the name of
	// an entry in Catalog.Actions.
	Action string `json:"action" yaml:"action"`

	// Style names an entry in Catalog.Styles.
	Style string `json:"style,omitempty" yaml:"style,omitempty"`

	// Trigger is a list of names of entries in Catalog.Triggers.
	Trigger []string `json:"trigger" yaml:"trigger"`

	// IsControl marks a placebo message, which is never shown.
	IsControl bool `json:"isControl,omitempty" yaml:"isControl,omitempty"`

	// MaxDisplayCount, if positive, overrides the style's budget.
	MaxDisplayCount int `json:"maxDisplayCount,omitempty" yaml:"maxDisplayCount,omitempty"`
}

// Metadata is the mutable, persisted state of a message.
//
// This package never increments DisplayCount or sets Dismissed or
// Pressed during selection.  See OnMessageDisplayed and friends.
type Metadata struct {
	Id           string `json:"id"`
	DisplayCount int    `json:"displayCount"`
	Pressed      bool   `json:"pressed"`
	Dismissed    bool   `json:"dismissed"`
}

// NewMetadata makes the default Metadata for the given message id.
func NewMetadata(id string) *Metadata {
	return &Metadata{
		Id: id,
	}
}

// Copy returns a shallow copy, which is a complete copy.
func (m *Metadata) Copy() *Metadata {
	acc := *m
	return &acc
}

// Message is a fully resolved message.
//
// Messages are only made by Messaging, which guarantees that Action
// is not empty, Triggers is not empty, and Metadata is not nil.
type Message struct {
	Id string `json:"id"`

	Data *MessageData `json:"data"`

	// Action is the resolved action template.  See
	// Messaging.GetMessageAction.
	Action string `json:"action"`

	Style *StyleData `json:"style"`

	// Triggers are resolved expressions, not aliases.
	Triggers []string `json:"triggers"`

	Metadata *Metadata `json:"metadata"`
}

// MaxDisplayCount returns the message's display budget.
func (m *Message) MaxDisplayCount() int {
	if m.Data != nil && 0 < m.Data.MaxDisplayCount {
		return m.Data.MaxDisplayCount
	}
	return m.Style.MaxDisplayCount
}

// IsControl reports whether the message is a control (placebo)
// message.
func (m *Message) IsControl() bool {
	return m.Data != nil && m.Data.IsControl
}

// Priority is the style's priority.
func (m *Message) Priority() int {
	return m.Style.Priority
}
