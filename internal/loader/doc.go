// Package loader turns *.svc.yaml package descriptions into ast values.
//
// Documents are decoded through the yaml.v3 node API so every declaration
// keeps the span it was written at. Schema problems are reported to a
// diag.Reporter and the offending element is skipped; only unreadable or
// malformed documents are returned as errors.
package loader
