package wkhtmltox

// Guard proves the engine was initialized. Closing it deinitializes the
// engine for the rest of the process.
type Guard struct {
	lib *Library
}

// Library returns the library the guard belongs to.
func (g *Guard) Library() *Library { return g.lib }

// NewGlobalSettings is shorthand for g.Library().NewGlobalSettings().
func (g *Guard) NewGlobalSettings() (*GlobalSettings, error) {
	return g.lib.NewGlobalSettings()
}

// NewObjectSettings is shorthand for g.Library().NewObjectSettings().
func (g *Guard) NewObjectSettings() (*ObjectSettings, error) {
	return g.lib.NewObjectSettings()
}

// Close deinitializes the engine. The engine is considered gone afterwards
// even if the native call fails; that failure is only logged. Calling Close
// again is a no-op.
//
// Close must run on the init thread, after every job output was closed.
func (g *Guard) Close() error {
	if err := g.lib.checkThread(); err != nil {
		return err
	}
	if !g.lib.state.deinit() {
		return nil
	}

	log := g.lib.log()
	backend := g.lib.native()
	log.Debug(g.lib.kind.String() + "_deinit")
	if !backend.Deinit() {
		log.Warn("failed to deinitialize " + g.lib.kind.String())
	}
	return nil
}
