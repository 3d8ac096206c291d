/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/jsccast/yaml"
)

// ControlBehavior says what to do when the selected message is a
// control message.
type ControlBehavior string

const (
	// ShowNextMessage falls back to the next eligible non-control
	// message.
	ShowNextMessage ControlBehavior = "show-next-message"

	// ShowNone shows nothing at all.
	ShowNone ControlBehavior = "show-none"
)

// DefaultControlBehavior is used when a Catalog doesn't say.
var DefaultControlBehavior = ShowNextMessage

// ParseControlBehavior checks the given string.  The empty string
// gives DefaultControlBehavior.
func ParseControlBehavior(s string) (ControlBehavior, error) {
	switch ControlBehavior(s) {
	case "":
		return DefaultControlBehavior, nil
	case ShowNextMessage, ShowNone:
		return ControlBehavior(s), nil
	default:
		return "", &UnknownControlBehavior{Value: s}
	}
}

func (b *ControlBehavior) UnmarshalText(bs []byte) error {
	cb, err := ParseControlBehavior(string(bs))
	if err != nil {
		return err
	}
	*b = cb
	return nil
}

func (b *ControlBehavior) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}

// Catalog is a snapshot of the messaging configuration.
//
// A Catalog is treated as immutable once it's handed to Messaging.
type Catalog struct {
	// Messages are the message definitions in document order.
	// That order breaks ties between messages with the same
	// priority.
	Messages MessageDefs `json:"messages" yaml:"messages"`

	Styles map[string]*StyleData `json:"styles,omitempty" yaml:"styles,omitempty"`

	// Actions maps action aliases to action templates.
	Actions map[string]string `json:"actions,omitempty" yaml:"actions,omitempty"`

	// Triggers maps trigger aliases to expressions.
	Triggers map[string]string `json:"triggers,omitempty" yaml:"triggers,omitempty"`

	// MessageUnderExperiment is either a message id or, if it
	// ends with "-", a message id prefix.
	MessageUnderExperiment string `json:"messageUnderExperiment,omitempty" yaml:"messageUnderExperiment,omitempty"`

	OnControl ControlBehavior `json:"onControl,omitempty" yaml:"onControl,omitempty"`
}

// ParseCatalog parses YAML or JSON into a Catalog.
//
// A JSON object is decoded as JSON, which keeps the order of the
// messages and uses JSON's stricter typing.  Anything else, including
// YAML flow mappings that aren't valid JSON, is decoded as YAML.
func ParseCatalog(src []byte) (*Catalog, error) {
	var c Catalog
	if isJSONObject(src) {
		if err := json.Unmarshal(src, &c); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(src, &c); err != nil {
		return nil, err
	}
	if c.OnControl == "" {
		c.OnControl = DefaultControlBehavior
	}
	return &c, nil
}

func isJSONObject(src []byte) bool {
	trimmed := bytes.TrimSpace(src)
	return 0 < len(trimmed) && trimmed[0] == '{' && json.Valid(trimmed)
}

// Style returns the named style or a DefaultStyle().
func (c *Catalog) Style(name string) *StyleData {
	if s, have := c.Styles[name]; have && s != nil {
		return s
	}
	return DefaultStyle()
}

// SanitizeAction resolves a raw action.
//
// A raw action that starts with "http" is used as is.  Otherwise
// it's an alias into actions.  An unknown or blank alias results in
// false.
func SanitizeAction(unsafe string, actions map[string]string) (string, bool) {
	if strings.HasPrefix(unsafe, "http") {
		return unsafe, true
	}
	safe, have := actions[unsafe]
	if !have || strings.TrimSpace(safe) == "" {
		return "", false
	}
	return safe, true
}

// SanitizeTriggers resolves trigger aliases into expressions.
//
// If any alias is unknown or blank, the result is nil and false.
func SanitizeTriggers(unsafe []string, triggers map[string]string) ([]string, bool) {
	acc := make([]string, 0, len(unsafe))
	for _, alias := range unsafe {
		safe, have := triggers[alias]
		if !have || strings.TrimSpace(safe) == "" {
			return nil, false
		}
		acc = append(acc, safe)
	}
	return acc, true
}

// IsUnderExperiment determines if the message is part of the
// experiment named by expr.
//
// Control messages are always under experiment.  Otherwise, expr
// ending in "-" is an id prefix, and anything else must match the
// id exactly.
func IsUnderExperiment(m *Message, expr string) bool {
	if m.IsControl() {
		return true
	}
	switch {
	case strings.TrimSpace(expr) == "":
		return false
	case strings.HasSuffix(expr, "-"):
		return strings.HasPrefix(m.Id, expr)
	default:
		return m.Id == expr
	}
}
