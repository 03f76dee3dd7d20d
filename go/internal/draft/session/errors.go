package session

import "errors"

// Rejections. A rejected operation leaves the session untouched.
var (
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotStarted       = errors.New("session not started")
	ErrSessionCompleted = errors.New("session already completed")
	ErrSessionAborted   = errors.New("session aborted")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyClaimed   = errors.New("participant already holds an item")
	ErrItemNotOffered   = errors.New("item is not offered in this session")
	ErrItemUnavailable  = errors.New("item already claimed")
	ErrCancelNotAllowed = errors.New("only the most recent claim can be cancelled")
	ErrInvalidRoster    = errors.New("participants do not fill two equal teams")
)

// ErrStaleTimer marks a timer callback for a turn that is no longer live. It never leaves the package.
var ErrStaleTimer = errors.New("stale turn timer")

var reasons = []struct {
	err  error
	code string
}{
	{ErrAlreadyStarted, "already_started"},
	{ErrNotStarted, "not_started"},
	{ErrSessionCompleted, "session_completed"},
	{ErrSessionAborted, "session_aborted"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrAlreadyClaimed, "already_claimed"},
	{ErrItemNotOffered, "item_not_offered"},
	{ErrItemUnavailable, "item_unavailable"},
	{ErrCancelNotAllowed, "cancel_not_allowed"},
	{ErrInvalidRoster, "invalid_roster"},
}

// RejectReason returns the stable code of a session rejection, or "" for any other error.
func RejectReason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ""
}
