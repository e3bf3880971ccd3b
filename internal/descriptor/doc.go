// Package descriptor parses the well-known descriptor file of an extracted
// workflow package into the format-agnostic model tree.
//
// The descriptor is a JSON document named workflow.json at the package root.
// It is parsed through HCL's JSON syntax, so property values surface as cty
// values with proper source-ranged diagnostics, and units can later decode
// them with gocty. The parser is total and pure with respect to blob files:
// it validates the schema, classifies every property as a scalar, a
// homogeneous sequence, or a blob reference, and never opens anything but
// the descriptor itself.
//
// One consequence of the HCL JSON syntax: string values are templates. No
// variables or functions are available during evaluation, so an interpolation
// sequence in a string is a schema violation; a literal "${" must be written
// "$${" (and a literal "%{" as "%%{"), exactly as in HCL's JSON variant.
package descriptor
