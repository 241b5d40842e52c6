// Package ledger persists conversations, animation versions, and chat
// messages in SQLite. Each conversation owns a gapless version sequence of
// animations; a UNIQUE(conversation_id, version) constraint plus bounded
// retry keeps concurrent jobs from claiming the same version. Animation
// status transitions are single atomic updates and terminal states are
// immutable.
package ledger
