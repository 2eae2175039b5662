// Package markdown converts between the editor's HTML vocabulary and
// Markdown text.
//
// Render and ToHTML are pure string converters; Export and Import wrap
// them around an engine. The mapping is lossy where Markdown has no
// syntax: color spans and alignment are dropped on export, underline
// and sub/sup travel as inline HTML, and imported raw HTML is left for
// the engine's sanitizer to screen. Lists and quotes convert one level
// deep, and emphasis nesting beyond the full ***bold italic*** overlap
// is simplified.
package markdown
