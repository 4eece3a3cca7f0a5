package quiet

import "errors"

// ErrCorruptMark is logged when the stored low-water mark cannot be parsed.
// The throttle treats such a mark as absent and re-seeds it.
var ErrCorruptMark = errors.New("quiet: corrupt low-water mark")
