// Package placeholder reads and writes the ${Key attributes} markers that
// drive document filling.
//
// The Codec handles the text form. The Detector walks a document tree,
// finds marker text that may be scattered over several styled runs, and
// rewrites the tree so each marker sits alone in one text container styled
// like the run it started in.
package placeholder
