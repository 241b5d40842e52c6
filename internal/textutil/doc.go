// Package textutil provides text helpers for conversation titles and
// filesystem-safe names.
package textutil
