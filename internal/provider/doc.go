// Package provider supplies renderable scene source for animation requests:
// either an LLM-backed generator speaking the OpenRouter chat-completion
// protocol, or a deterministic simulated generator for offline use and tests.
package provider
