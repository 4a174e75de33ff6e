// Package module declares the opaque "analyze declaration" / "codegen
// declaration" service spec.md §1 treats as an external collaborator: the
// language module's semantic analyzer and IR generator. zigc's core only
// calls through this interface — it never implements semantic analysis.
package module

// AnalysisState is the declaration analysis state machine spec.md §4.4
// references (Unreferenced/InProgress/Outdated/Queued/Complete/
// CodegenFailureRetryable/DependencyFailure/Sema*/Codegen*/Dependency*).
type AnalysisState int

const (
	Unreferenced AnalysisState = iota
	InProgress
	Outdated
	Queued
	Complete
	CodegenFailureRetryable
	DependencyFailure
	SemaFailure
	CodegenFailure
	DependencyFailureRetryable
)

// ErrAnalysisFail is returned by Analyzer methods when analysis fails in
// the ordinary, recoverable way spec.md §4.4 calls AnalysisFail — distinct
// from an unexpected Go error, which the dispatch loop treats as a
// CodegenFailureRetryable instead.
type analysisFailError struct{ msg string }

func (e *analysisFailError) Error() string { return e.msg }

// ErrAnalysisFail is the sentinel instance CodegenDecl/AnalyzeDecl
// dispatch and root reanalysis compare against with errors.Is.
var ErrAnalysisFail error = &analysisFailError{msg: "analysis failed"}

// Decl is a handle to one declaration in the module, opaque to the core —
// it carries only what the dispatch loop needs to read back (§4.4).
type Decl struct {
	ID       int
	Analysis AnalysisState
	IsFunc   bool
	Deleted  bool // marked for deletion, dependants must be empty first
}

// Analyzer is the external semantic-analysis/codegen service (§1 Out of
// scope: "the language module's semantic analyzer and IR generator").
type Analyzer interface {
	// EnsureDeclAnalyzed runs AnalyzeDecl's action (§4.4).
	EnsureDeclAnalyzed(declID int) error

	// AnalyzeBody runs body analysis + liveness for a function decl whose
	// analysis is Queued, the CodegenDecl precondition in §4.4.
	AnalyzeBody(declID int) error

	// Decl reads back a declaration's current state.
	Decl(declID int) Decl

	// UnloadRootSource reclaims memory for the root module's source text
	// (§4.3 steps 2 and 8).
	UnloadRootSource()

	// ReanalyzeRoot re-analyzes the root container, tolerating
	// AnalysisFail per §4.3 step 2.
	ReanalyzeRoot() error

	// IncrementGeneration bumps the module's generation counter (§4.3 step
	// 2; §5 "both must observe generation counters for invalidation").
	IncrementGeneration()

	// DeletionCandidates returns declarations marked for deletion (§4.3
	// step 4).
	DeletionCandidates() []int

	// DependantCount reports how many live declarations still depend on
	// declID (§4.3 step 4: "whose dependant set is empty is deleted").
	DependantCount(declID int) int

	// Delete removes a declaration with no remaining dependants.
	Delete(declID int)

	// ClearDeletionFlag is applied to declarations whose dependant set was
	// not yet empty (§4.3 step 4 "others have their deletion flag
	// cleared").
	ClearDeletionFlag(declID int)
}
