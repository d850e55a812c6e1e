package httpserver

import "time"

// ShutdownTimeout controls how long to wait for graceful shutdowns.
const ShutdownTimeout = 10 * time.Second
