package ledger

import "errors"

// ErrNotFound reports a conversation, animation, or message that does not
// exist or is owned by a different user. Ownership mismatches are
// deliberately indistinguishable from absence.
var ErrNotFound = errors.New("not found")

// ErrTerminalState reports a status transition attempted on an animation
// already in a terminal state.
var ErrTerminalState = errors.New("animation already in terminal state")
