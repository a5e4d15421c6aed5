package engine

// Flush fsyncs every present back-end device.
func (e *Engine) Flush() error {
	return e.table.FlushAll()
}

// Disconnect is a best-effort log-and-return; there is nothing to
// unwind since the engine holds no per-request state.
func (e *Engine) Disconnect() {
	e.log.Info("disconnect requested")
}
