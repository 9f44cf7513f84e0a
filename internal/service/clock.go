package service

import "time"

// now is replaced in tests that need strictly increasing timestamps.
var now = time.Now
