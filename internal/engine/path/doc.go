// Package path implements structural addressing for document tree
// positions.
//
// A Path is the sequence of child indices walked from a fixed root down to
// a node. Unlike a node reference, a path can outlive the node it was
// captured from: it can be resolved again later against whatever tree now
// hangs under the root. Resolution is positional, so it is only guaranteed
// to land on the original node while the tree shape between root and node
// is unchanged. After structural edits a path may fail to resolve, or
// resolve to a shifted sibling; callers treat a failed or stale resolution
// as "restoration impossible", never as an error.
//
// Encode and Decode are pure functions of tree shape: node identity does
// not participate, and two structurally identical trees decode a given
// path to the same position.
package path
