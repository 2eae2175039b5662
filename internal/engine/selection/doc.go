// Package selection tracks the live selection of one editor and converts
// it to and from structural addresses.
//
// The live selection is a pair of (node, offset) endpoints, anchor where
// the selection started and focus at the caret side, referencing nodes of
// the editor's document directly. Node references go stale the moment the
// tree is mutated around them, so the selection is never persisted in this
// form: the Bridge captures it into a path.Range (structural addresses
// relative to the editor root) and restores from one later, tolerating
// lookup failure when the tree has changed shape in between.
//
// Restore installs the live selection only; it never mutates document
// content.
package selection
