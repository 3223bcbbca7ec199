package engine

import (
	"fmt"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// ResultKind tells the pipeline how a handler attempt ended.
type ResultKind int

const (
	// ResultIgnored means the handler did not claim the placeholder.
	ResultIgnored ResultKind = iota
	// ResultProceed continues after the processed placeholder.
	ResultProceed
	// ResultRescan continues at Result.From, which is processed again
	// even if it was visited before.
	ResultRescan
	// ResultSkipped means the handler owns the key but its missing data
	// policy said to leave the placeholder alone. Other handlers still
	// get a chance; if none claims it the placeholder stays as is
	// without being reported as unclaimed.
	ResultSkipped
)

var resultNames = [...]string{"ignored", "proceed", "rescan", "skipped"}

func (k ResultKind) String() string {
	if int(k) < len(resultNames) {
		return resultNames[k]
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// Result is returned by Handler.TryHandle.
type Result struct {
	Kind ResultKind
	From tree.NodeID
}

var (
	Ignored = Result{Kind: ResultIgnored, From: tree.None}
	Proceed = Result{Kind: ResultProceed, From: tree.None}
	Skipped = Result{Kind: ResultSkipped, From: tree.None}
)

// Rescan resumes scanning at from.
func Rescan(from tree.NodeID) Result {
	return Result{Kind: ResultRescan, From: from}
}

func (r Result) String() string {
	if r.Kind == ResultRescan {
		return fmt.Sprintf("rescan(%d)", r.From)
	}
	return r.Kind.String()
}
