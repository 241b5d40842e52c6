// Package pipeline runs one animation job end to end: resolve the
// conversation, generate scene source, render it in an isolated workspace,
// publish the artifact, and land the animation row in a terminal state. Every
// failure path persists before returning, so a crashed renderer never leaves
// a job stuck in processing.
package pipeline
