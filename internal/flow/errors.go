package flow

import "errors"

// ErrAccessDenied marks a privileged flow aborted after too many wrong PIN
// entries. The engine reports it to the caller for logging; the operator
// only sees the denial message.
var ErrAccessDenied = errors.New("access denied")

// pinAttemptLimit is how many consecutive wrong PIN entries abort a
// privileged flow.
const pinAttemptLimit = 3
