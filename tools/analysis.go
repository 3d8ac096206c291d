/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package tools inspects and renders catalogs.
package tools

import (
	"io"
	"sort"

	"github.com/Comcast/nudge/core"

	"gopkg.in/yaml.v2"
)

// Dropped names a message that will never be shown and says why.
type Dropped struct {
	Id     string `json:"id" yaml:"id"`
	Reason string `json:"reason" yaml:"reason"`
}

// CatalogAnalysis reports problems and facts about a catalog.
type CatalogAnalysis struct {
	Messages       int       `json:"messages" yaml:"messages"`
	Dropped        []Dropped `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	UnknownStyles  []string  `json:"unknownStyles,omitempty" yaml:"unknownStyles,omitempty"`
	UnusedActions  []string  `json:"unusedActions,omitempty" yaml:"unusedActions,omitempty"`
	UnusedTriggers []string  `json:"unusedTriggers,omitempty" yaml:"unusedTriggers,omitempty"`
	Controls       []string  `json:"controls,omitempty" yaml:"controls,omitempty"`

	// Experiment lists the messages matched by the catalog's
	// messageUnderExperiment (control messages always match).
	Experiment []string `json:"experiment,omitempty" yaml:"experiment,omitempty"`

	OnControl core.ControlBehavior `json:"onControl" yaml:"onControl"`
}

// Analyze checks the catalog the same way message loading does.
func Analyze(c *core.Catalog) (*CatalogAnalysis, error) {
	if c == nil {
		return nil, core.NoCatalog
	}

	a := CatalogAnalysis{
		Messages:  len(c.Messages),
		OnControl: c.OnControl,
	}

	usedActions, usedTriggers, unknownStyles := make(map[string]bool), make(map[string]bool), make(map[string]bool)

	for _, def := range c.Messages {
		d := def.Data
		if d == nil {
			a.Dropped = append(a.Dropped, Dropped{def.Id, "no data"})
			continue
		}

		usedActions[d.Action] = true
		for _, t := range d.Trigger {
			usedTriggers[t] = true
		}
		if d.Style != "" {
			if _, have := c.Styles[d.Style]; !have {
				unknownStyles[d.Style] = true
			}
		}

		if _, ok := core.SanitizeAction(d.Action, c.Actions); !ok {
			a.Dropped = append(a.Dropped, Dropped{def.Id, "bad action " + d.Action})
			continue
		}
		if len(d.Trigger) == 0 {
			a.Dropped = append(a.Dropped, Dropped{def.Id, "no triggers"})
			continue
		}
		if _, ok := core.SanitizeTriggers(d.Trigger, c.Triggers); !ok {
			a.Dropped = append(a.Dropped, Dropped{def.Id, "bad triggers"})
			continue
		}

		m := &core.Message{Id: def.Id, Data: d}
		if m.IsControl() {
			a.Controls = append(a.Controls, def.Id)
		}
		if core.IsUnderExperiment(m, c.MessageUnderExperiment) {
			a.Experiment = append(a.Experiment, def.Id)
		}
	}

	a.UnknownStyles = keysToStringSlice(unknownStyles)
	a.UnusedActions = unused(c.Actions, usedActions)
	a.UnusedTriggers = unused(c.Triggers, usedTriggers)

	return &a, nil
}

// WriteAnalysisYAML renders the analysis as YAML.
func WriteAnalysisYAML(a *CatalogAnalysis, out io.Writer) error {
	bs, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	_, err = out.Write(bs)
	return err
}

// keysToStringSlice returns the map's keys, sorted.
func keysToStringSlice(m map[string]bool) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}

// unused returns the keys in 'all' that aren't in 'used', sorted.
func unused(all map[string]string, used map[string]bool) []string {
	diff := make(map[string]bool)
	for key := range all {
		if !used[key] {
			diff[key] = true
		}
	}
	return keysToStringSlice(diff)
}
