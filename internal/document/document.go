// Package document defines the typed records produced by the content
// pipeline: the per-file Document and its table-of-contents side structure.
package document

import "time"

// Document is the canonical record for one Markdown source file.
//
// Document is deliberately mutable: Refresh-style reloads overwrite the
// canonical record in place through ApplyFrom, so its identity survives
// reloads. Callers must never assume value semantics.
type Document struct {
	// Path is the source location and the stable identity of the document.
	// It never changes after creation.
	Path string

	// Slug is derived once from the file name and is stable across reloads.
	Slug string

	Layout  string
	Draft   bool
	Title   string
	Summary string
	Hero    string
	Author  string
	Tags    []string

	// Date is the publish date. nil means the document is visible from the
	// moment it is created.
	Date *time.Time

	// Content is the original, unmodified source text including any
	// front-matter fence.
	Content string

	// Preview is the rendered HTML body, independent of page chrome.
	Preview string

	// PageHTML is the full rendered page.
	PageHTML string

	WordCount int
	LineCount int

	Group string
	Order int

	// Map is the table of contents built during the render pass. Owned
	// exclusively by this document; rebuilt on every render.
	Map *DocumentMap
}

// ApplyFrom overwrites every mutable field of d with the values from fresh
// while preserving d's identity. Path is kept: identity never changes on
// refresh. ApplyFrom does no locking of its own; the document store
// serializes it behind its lock and hands readers copies instead of the
// record being overwritten.
func (d *Document) ApplyFrom(fresh *Document) {
	d.Slug = fresh.Slug
	d.Layout = fresh.Layout
	d.Draft = fresh.Draft
	d.Title = fresh.Title
	d.Summary = fresh.Summary
	d.Hero = fresh.Hero
	d.Author = fresh.Author
	d.Tags = fresh.Tags
	d.Date = fresh.Date
	d.Content = fresh.Content
	d.Preview = fresh.Preview
	d.PageHTML = fresh.PageHTML
	d.WordCount = fresh.WordCount
	d.LineCount = fresh.LineCount
	d.Group = fresh.Group
	d.Order = fresh.Order
	d.Map = fresh.Map
}

// DocumentMap is the extracted table of contents for one document: the
// ordered level-2 headings, each optionally owning its level-3 sub-entries.
type DocumentMap struct {
	Headings []*MarkdownMenu
}

// Add appends a new top-level entry and returns it.
func (m *DocumentMap) Add(text, link string) *MarkdownMenu {
	entry := &MarkdownMenu{Text: text, Link: link}
	m.Headings = append(m.Headings, entry)
	return entry
}

// Last returns the most recently added top-level entry, or nil when the map
// is empty.
func (m *DocumentMap) Last() *MarkdownMenu {
	if len(m.Headings) == 0 {
		return nil
	}
	return m.Headings[len(m.Headings)-1]
}

// MarkdownMenu is a top-level table-of-contents entry.
type MarkdownMenu struct {
	// Icon is reserved for callers that decorate navigation entries, for
	// example from front matter or a future directive; the heading
	// collector never sets it.
	Icon  string
	Text  string
	Link  string
	Items []*MarkdownMenuItem
}

// AddItem appends a sub-entry to the menu.
func (m *MarkdownMenu) AddItem(text, link string) {
	m.Items = append(m.Items, &MarkdownMenuItem{Text: text, Link: link})
}

// MarkdownMenuItem is a sub-entry below a top-level heading. Link is always
// an in-document anchor reference ("#id").
type MarkdownMenuItem struct {
	Text string
	Link string
}
