// Package engine drives placeholder commands over a document tree.
//
// A Pipeline scans the tree for placeholders, feeds each one through the
// Ignore/EndIgnore/Exit state machine and then offers it to its handlers
// in order until one claims it. Handlers read data through the access
// prefixes (value, *value, $value, $$value), fall back to the Policy when
// data is missing and may rewrite the tree, after which the pipeline
// rescans.
package engine
