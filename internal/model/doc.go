// Package model defines the data structures shared by the imgmirror packages.
//
// This package contains the following main types:
//   - ImageRef: A qualifying <img> reference and its derived local paths
//   - ImageResult: The outcome of one image fetch attempt
//   - PageResult: Everything that happened to one HTML page
//   - Run: One invocation of the pipeline over a root directory
//
// Design decision: The types live in their own package so that fetch,
// rewrite, pipeline, database and report can share them without import
// cycles. They are serializable to JSON for reports and manifest storage.
package model
