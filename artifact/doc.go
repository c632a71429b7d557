// Package artifact provides the on-disk artifact lifecycle manager.
//
// The artifact package owns the per-session, per-execution directory tree
// under the configured base directory:
//
//	<base>/<sessionId>/execution_<NNN>/
//	    script_<NNN>.py
//	    output_<NNN>.txt
//	    return_value_<NNN>.json (or .txt when the value is not JSON)
//	    <files generated by the script>
//
// It persists executed scripts, captured output, and return values as named,
// typed, sized artifacts, bundles them into downloadable archives, prunes old
// executions per session, and resolves artifact resource locators of the form
// artifacts://session/<sessionId>/file/<name>.
//
// Raw filesystem paths never leak past this package: consumers see artifacts
// only as FileInfo descriptors produced by AnalyzeFile.
package artifact
