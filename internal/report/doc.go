// Package report writes run reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for pull requests and documentation
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that output formats can be added
// without touching the run model.
//
// Reports are written only on request. The default output of a run is the
// per-image console transcript, not a report.
package report
