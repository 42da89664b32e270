package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/teemow/todoist-daily/internal/daily"
	"github.com/teemow/todoist-daily/internal/logging"
	"github.com/teemow/todoist-daily/internal/todoist"
)

//go:embed templates/index.html
var templateFS embed.FS

// markdown renders labels with dangerous link schemes removed. Inline raw
// HTML is shown as text.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(escapedRawHTML{}, 100)),
	),
)

// escapedRawHTML renders inline raw HTML nodes as escaped text. Its priority
// is ahead of the default HTML renderer, which would omit them.
type escapedRawHTML struct{}

func (escapedRawHTML) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindRawHTML, renderEscapedRawHTML)
}

func renderEscapedRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	segments := node.(*ast.RawHTML).Segments
	for i := 0; i < segments.Len(); i++ {
		segment := segments.At(i)
		if _, err := w.Write(util.EscapeHTML(segment.Value(source))); err != nil {
			return ast.WalkStop, err
		}
	}
	return ast.WalkSkipChildren, nil
}

type pageData struct {
	Error     string
	Yesterday []pageItem
	Today     []pageItem
}

type pageItem struct {
	ID    string
	Label template.HTML
}

func parsePageTemplate() (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return t, nil
}

func newPageData(report daily.Report) pageData {
	return pageData{
		Yesterday: pageItems(report.Yesterday),
		Today:     pageItems(report.Today),
	}
}

func pageItems(tasks []todoist.Task) []pageItem {
	items := make([]pageItem, 0, len(tasks))
	for _, t := range tasks {
		label := t.ContentWithParent
		if label == "" {
			label = t.Content
		}
		items = append(items, pageItem{ID: t.ID.String(), Label: renderInline(label)})
	}
	return items
}

// renderInline renders Todoist's inline markdown (bold, links, code) into
// HTML. Content that turns into anything but a single paragraph is escaped
// as plain text.
func renderInline(label string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(label), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(label))
	}

	out := strings.TrimSpace(buf.String())
	inner, ok := strings.CutPrefix(out, "<p>")
	if ok {
		inner, ok = strings.CutSuffix(inner, "</p>")
	}
	if !ok || strings.Contains(inner, "<p>") {
		return template.HTML(template.HTMLEscapeString(label))
	}
	return template.HTML(inner)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	if data.Error == "" && data.Yesterday == nil && data.Today == nil {
		data.Error = "Unknown"
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.requestLogger(r).Error("failed to render page", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
