package tools

import (
	"fmt"
	"html"
	"io"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/sio"

	md "github.com/russross/blackfriday/v2"
)

// RenderCatalogHTML writes a table of the catalog's messages in
// catalog order.  Message text is markdown.
func RenderCatalogHTML(c *core.Catalog, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}
	h := html.EscapeString

	a, err := Analyze(c)
	if err != nil {
		return err
	}
	dropped := make(map[string]string, len(a.Dropped))
	for _, d := range a.Dropped {
		dropped[d.Id] = d.Reason
	}

	f(`<div class="messages"><table>`)
	for _, def := range c.Messages {
		class := "message"
		if reason, have := dropped[def.Id]; have {
			class += " dropped"
			f(`<tr class="%s"><td><span id="%s" class="messageId">%s</span></td><td><div class="reason">%s</div></td></tr>`,
				class, h(def.Id), h(def.Id), h(reason))
			continue
		}
		d := def.Data
		if d.IsControl {
			class += " control"
		}
		f(`<tr class="%s"><td><span id="%s" class="messageId">%s</span></td><td>`, class, h(def.Id), h(def.Id))
		if d.Title != "" {
			f(`<div class="title">%s</div>`, h(d.Title))
		}
		if d.Text != "" {
			f(`<div class="text doc">%s</div>`, md.Run([]byte(d.Text)))
		}
		f(`<table>`)
		if d.ButtonLabel != "" {
			f(`<tr><td>button</td><td>%s</td></tr>`, h(d.ButtonLabel))
		}
		action, _ := core.SanitizeAction(d.Action, c.Actions)
		f(`<tr><td>action</td><td><code>%s</code></td></tr>`, h(action))
		style := c.Style(d.Style)
		f(`<tr><td>priority</td><td>%d</td></tr>`, style.Priority)
		triggers, _ := core.SanitizeTriggers(d.Trigger, c.Triggers)
		for _, t := range triggers {
			f(`<tr><td>trigger</td><td><div class="code"><pre>%s</pre></div></td></tr>`, h(t))
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderCatalogPage writes a complete HTML page for the catalog.
func RenderCatalogPage(c *core.Catalog, title string, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/catalog-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(title))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(title))

	if err := RenderCatalogHTML(c, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderCatalogPage reads a catalog file and renders it.
func ReadAndRenderCatalogPage(filename string, cssFiles []string, out io.Writer) error {
	c, err := sio.ReadCatalog(filename)
	if err != nil {
		return err
	}
	return RenderCatalogPage(c, filename, out, cssFiles)
}
