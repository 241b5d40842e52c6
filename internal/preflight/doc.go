// Package preflight provides readiness checks for the paths, renderer
// binary, and LLM endpoint the daemon depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and refuses to serve when a check
//     fails, so a misconfigured renderer surfaces immediately instead of on
//     the first job.
//   - The CLI "reelforge status" command displays individual check results.
package preflight
