// Package report renders a batch summary as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/eclipsepath/internal/pipeline"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown writes the batch summary: one table row per file in listing order,
// then the failures with their errors.
func Markdown(b *pipeline.Batch, palette []string) []byte {
	var buf bytes.Buffer
	failures := b.Failures()

	fmt.Fprintf(&buf, "# Batch %s\n\n", escape(b.Dir))
	fmt.Fprintf(&buf, "%d files, %d extracted, %d failed.\n\n",
		len(b.Outcomes), len(b.Outcomes)-len(failures), len(failures))

	if len(b.Outcomes) > 0 {
		buf.WriteString("## Files\n\n")
		buf.WriteString("| # | Label | Style | Zones | Center line | Segments | Status |\n")
		buf.WriteString("|---|---|---|---|---|---|---|\n")
		for i, o := range b.Outcomes {
			style := ""
			if len(palette) > 0 {
				style = "`" + palette[o.StyleIndex%len(palette)] + "`"
			}
			zones, segments, line, status := "-", "-", "-", "failed"
			if o.Result != nil {
				zones = fmt.Sprint(len(o.Result.Zones))
				segments = fmt.Sprint(len(o.Result.CenterLine))
				if o.Result.HasCenterLine() {
					line = escape(o.Result.CenterLineName)
				}
				status = "ok"
			}
			fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s | %s |\n",
				i+1, escape(o.Label), style, zones, line, segments, status)
		}
		buf.WriteString("\n")
	}

	if len(failures) > 0 {
		buf.WriteString("## Failures\n\n")
		for _, f := range failures {
			fmt.Fprintf(&buf, "- **%s**: %s\n", escape(f.Filename), escape(f.Err.Error()))
		}
	}
	return buf.Bytes()
}

// Render writes the batch summary as a standalone HTML page.
func Render(w io.Writer, b *pipeline.Batch, palette []string) error {
	var body bytes.Buffer
	if err := md.Convert(Markdown(b, palette), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body></html>\n",
		html.EscapeString("Batch "+b.Dir), body.String())
	return err
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "|", `\|`, "#", `\#`, "\n", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
