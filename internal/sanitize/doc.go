// Package sanitize filters untrusted HTML down to the formatting
// vocabulary the editor understands.
//
// Sanitization is an allow-list tree filter: input is parsed with the
// platform parser, walked once, and re-serialized. Elements outside the
// policy are unwrapped in place so their text survives; a smaller discard
// set (script, style, and the embedding elements) is removed subtree and
// all. Inline event-handler attributes and script-bearing URL schemes
// are stripped unconditionally, so no policy configuration can readmit
// them.
//
// The editor core never decides sanitization. It applies whatever
// func(string) string it was configured with around content entry
// points, and Policy.Sanitize has exactly that shape:
//
//	e, err := engine.New(engine.WithSanitizer(sanitize.Default().Sanitize))
package sanitize
