// Package render supervises the external animation renderer: subprocess
// invocation with full output capture, failure classification, and discovery
// of the rendered artifact inside the job's media tree.
package render
