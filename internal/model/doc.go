// Package model defines the format-agnostic descriptor tree produced by
// parsing a workflow package.
//
// Why have a separate model?
//
// The descriptor parser and the graph linker should not have to agree on a
// concrete file syntax. The parser translates whatever is on disk into this
// model, and everything downstream (blob resolution, linking, validation)
// operates on the model alone. The model lives only for the duration of a
// load; it is discarded once the Workflow has been assembled.
package model
