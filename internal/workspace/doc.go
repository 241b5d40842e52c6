// Package workspace manages the ephemeral per-job directories the renderer
// works in: a uniquely named job directory holding the generated scene script
// and a media output subtree, cleaned up on every exit path.
package workspace
