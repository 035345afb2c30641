package action

import (
	"context"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// pagesGlob matches every validation page of a site.
const pagesGlob = "validations/**/*.html"

// updateDataDocs renders the validation result into each selected data
// docs site and rebuilds the site index.
type updateDataDocs struct {
	sites map[string]string
	names []string
}

func newUpdateDataDocs(params map[string]any, deps Deps) (Action, error) {
	selected, err := namesParam(params, "site_names")
	if err != nil {
		return nil, err
	}
	for name := range deps.Sites {
		if IsReservedResultKey(name) {
			return nil, fmt.Errorf("data docs site name %q is reserved", name)
		}
	}
	var names []string
	if selected.IsAll() {
		names = ir.SortedKeys(deps.Sites)
	} else {
		for _, name := range selected {
			if _, ok := deps.Sites[name]; !ok {
				return nil, fmt.Errorf("unknown data docs site %q", name)
			}
			names = append(names, name)
		}
	}
	return &updateDataDocs{sites: deps.Sites, names: names}, nil
}

func (a *updateDataDocs) Run(ctx context.Context, in *Input) (Result, error) {
	out := Result{"class": config.ActionUpdateDataDocs}
	page := renderPage(
		"Validation Results: "+in.Identifier.ExpectationSuite.Name,
		RenderValidationMarkdown(in.Identifier, in.Result),
	)
	rel := PagePath(in.Identifier)

	for _, name := range a.names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := a.sites[name]
		target := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("site %q: %w", name, err)
		}
		if err := os.WriteFile(target, page, 0o644); err != nil {
			return nil, fmt.Errorf("site %q: %w", name, err)
		}
		if err := writeIndex(base); err != nil {
			return nil, fmt.Errorf("site %q: %w", name, err)
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", name, err)
		}
		out[name] = "file://" + filepath.ToSlash(abs)
	}
	return out, nil
}

// PagePath returns the slash-separated path of a result page relative to
// the site root.
func PagePath(id ir.ValidationResultIdentifier) string {
	return path.Join(
		"validations",
		pathSegment(id.ExpectationSuite.Name),
		pathSegment(id.RunID.RunName),
		id.RunID.RunTimeString(),
		pathSegment(id.BatchIdentifier)+".html",
	)
}

func pathSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// writeIndex lists every page of the site, newest run first.
func writeIndex(base string) error {
	pages, err := doublestar.Glob(os.DirFS(base), pagesGlob, doublestar.WithFilesOnly())
	if err != nil {
		return err
	}
	slices.Sort(pages)
	slices.Reverse(pages)

	var b strings.Builder
	b.WriteString("# Data Docs\n\n")
	if len(pages) == 0 {
		b.WriteString("No validation results yet.\n")
	}
	for _, p := range pages {
		fmt.Fprintf(&b, "- [%s](%s)\n", escapeMarkdown(strings.TrimSuffix(strings.TrimPrefix(p, "validations/"), ".html")), p)
	}
	return os.WriteFile(filepath.Join(base, "index.html"), renderPage("Data Docs", b.String()), 0o644)
}

// renderPage converts markdown to sanitized HTML inside a minimal document.
func renderPage(title, md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

// RenderValidationMarkdown renders a suite validation result as a
// markdown page.
func RenderValidationMarkdown(id ir.ValidationResultIdentifier, r *expectation.SuiteValidationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation Results: %s\n\n", escapeMarkdown(id.ExpectationSuite.Name))

	status := "Failed"
	if r.Success {
		status = "Succeeded"
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, escapeMarkdown(v)) }
	row("Status", status)
	row("Run name", id.RunID.RunName)
	row("Run time", id.RunID.RunTimeString())
	row("Batch", id.BatchIdentifier)
	if asset, ok := r.Meta.BatchDefinition["data_asset_name"].(string); ok {
		row("Data asset", asset)
	}
	row("Evaluated", strconv.Itoa(r.Statistics.EvaluatedExpectations))
	row("Successful", strconv.Itoa(r.Statistics.SuccessfulExpectations))
	row("Success percent", strconv.FormatFloat(r.Statistics.SuccessPercent, 'f', 1, 64)+"%")

	b.WriteString("\n## Expectations\n\n")
	if len(r.Results) == 0 {
		b.WriteString("This suite has no expectations.\n")
		return b.String()
	}
	b.WriteString("| Status | Expectation | Column | Observed |\n|---|---|---|---|\n")
	for _, res := range r.Results {
		mark := "failed"
		if res.Success {
			mark = "passed"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			mark,
			escapeMarkdown(res.ExpectationConfig.ExpectationType),
			escapeMarkdown(res.ExpectationConfig.Column()),
			escapeMarkdown(observedText(res)),
		)
	}
	return b.String()
}

func observedText(res expectation.ValidationResult) string {
	if res.ExceptionInfo.RaisedException {
		return "error: " + res.ExceptionInfo.ExceptionMessage
	}
	if v, ok := res.Result["observed_value"]; ok {
		return fmt.Sprint(v)
	}
	if v, ok := res.Result["unexpected_count"]; ok {
		return fmt.Sprintf("%v unexpected", v)
	}
	return ""
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
