// Package jsonschema derives JSON Schemas from Go types via reflection and
// validates untyped argument maps against them.
//
// Schemas are generated from exported struct fields using the `json` tag for
// naming and the `jsonschema` tag for descriptions, enums, and required
// overrides. Validation is the gatekeeper of the action dispatch path: tool
// arguments that fail Validate never reach a tool's execution function.
package jsonschema
