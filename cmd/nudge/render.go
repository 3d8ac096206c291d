package main

import (
	"encoding/json"
	"io"

	"github.com/Comcast/nudge/core"
)

// messageView is what "next" shows: what a client would render plus
// enough state to see why the message was picked.
type messageView struct {
	Id          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Text        string   `json:"text,omitempty"`
	ButtonLabel string   `json:"buttonLabel,omitempty"`
	Style       string   `json:"style,omitempty"`
	Priority    int      `json:"priority"`
	Displayed   int      `json:"displayed"`
	MaxDisplays int      `json:"maxDisplays"`
	Triggers    []string `json:"triggers"`
}

func viewMessage(m *core.Message) *messageView {
	v := &messageView{
		Id:          m.Id,
		Priority:    m.Priority(),
		MaxDisplays: m.MaxDisplayCount(),
		Triggers:    m.Triggers,
	}
	if m.Data != nil {
		v.Title = m.Data.Title
		v.Text = m.Data.Text
		v.ButtonLabel = m.Data.ButtonLabel
		v.Style = m.Data.Style
	}
	if m.Metadata != nil {
		v.Displayed = m.Metadata.DisplayCount
	}
	return v
}

// writeJSON writes x followed by a newline.  Pretty output is for
// people; compact output is one record per line for scripts.
func writeJSON(w io.Writer, x interface{}, pretty bool) error {
	var (
		js  []byte
		err error
	)
	if pretty {
		js, err = json.MarshalIndent(x, "", "  ")
	} else {
		js, err = json.Marshal(x)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(js, '\n'))
	return err
}
