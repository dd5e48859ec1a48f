package domain

import "errors"

// ErrAlreadyBound is returned on a second cohort bind attempt for the same
// chat.
var ErrAlreadyBound = errors.New("chat is already bound to a cohort")
