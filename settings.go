package wkhtmltox

import (
	"strings"

	"go.uber.org/zap"
)

// Setting is one key/value pair forwarded verbatim to the engine.
type Setting struct {
	Name  string
	Value string
}

// ownership tracks who must release a native settings object.
type ownership int

const (
	// ownershipOwned: the handle alone must release the resource.
	ownershipOwned ownership = iota
	// ownershipTransferred: the engine took it over and releases it with the
	// converter. Releasing it here would be a double free.
	ownershipTransferred
	// ownershipReleased: Close already destroyed it.
	ownershipReleased
)

// settings is the state shared by global and object settings.
type settings struct {
	lib       *Library
	scope     Scope
	handle    Handle
	ownership ownership
}

// set forwards one pair. Unknown keys reach the engine untouched, and some
// engines crash on invalid combinations; only vetted keys are safe.
func (s *settings) set(name, value string) error {
	if err := s.lib.checkThread(); err != nil {
		return err
	}
	if s.ownership != ownershipOwned {
		return ErrConsumed
	}
	if err := checkCString("name", name); err != nil {
		return err
	}
	if err := checkCString("value", value); err != nil {
		return err
	}

	s.lib.log().Debug(s.lib.kind.String()+"_set_"+string(s.scope)+"_setting",
		zap.String("name", name), zap.String("value", value))

	backend := s.lib.native()
	var ok bool
	if s.scope == ScopeGlobal {
		ok = backend.SetGlobalSetting(s.handle, name, value)
	} else {
		ok = backend.SetObjectSetting(s.handle, name, value)
	}
	if !ok {
		return &SettingError{Scope: s.scope, Name: name, Value: value}
	}
	return nil
}

// setAll applies pairs in order and stops at the first failure.
func (s *settings) setAll(pairs []Setting) error {
	for _, p := range pairs {
		if err := s.set(p.Name, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// transfer hands the resource to the engine. fn performs the native transfer;
// ownership flips in the same step.
func (s *settings) transfer(fn func(Handle)) error {
	if s.ownership != ownershipOwned {
		return ErrConsumed
	}
	fn(s.handle)
	s.ownership = ownershipTransferred
	return nil
}

// destroy releases an owned resource. It reports whether anything was
// released.
func (s *settings) destroy() (bool, error) {
	if s.ownership != ownershipOwned {
		return false, nil
	}
	if err := s.lib.checkThread(); err != nil {
		return false, err
	}
	s.ownership = ownershipReleased

	log := s.lib.log()
	if err := s.lib.state.usable(); err != nil {
		log.Warn("engine deinitialized, leaking " + string(s.scope) + " settings")
		return true, nil
	}

	backend := s.lib.native()
	log.Debug(s.lib.kind.String() + "_destroy_" + string(s.scope) + "_settings")
	if s.scope == ScopeGlobal {
		backend.DestroyGlobalSettings(s.handle)
	} else {
		backend.DestroyObjectSettings(s.handle)
	}
	return true, nil
}

func checkCString(field, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return &EncodingError{Field: field, Text: s}
	}
	return nil
}

// GlobalSettings configures a whole job. Creating one acquires the engine;
// it is consumed by NewConverter (or NewConverterWithHTML for images).
type GlobalSettings struct {
	settings
	gen uint64
}

// Set assigns one global setting. It returns a *SettingError if the engine
// rejects the pair and an *EncodingError if either string holds a NUL byte.
func (g *GlobalSettings) Set(name, value string) error {
	return g.set(name, value)
}

// SetAll assigns pairs in order, stopping at the first failure.
func (g *GlobalSettings) SetAll(pairs []Setting) error {
	return g.setAll(pairs)
}

// NewConverter consumes the settings and creates the job's converter.
func (g *GlobalSettings) NewConverter() (*Converter, error) {
	return g.newConverter(nil)
}

// NewConverterWithHTML consumes the settings and creates an image converter
// rendering html. An empty html falls back to the "in" setting.
func (g *GlobalSettings) NewConverterWithHTML(html string) (*Converter, error) {
	if g.lib.kind != KindImage {
		return nil, ErrNoObjects
	}
	if err := checkCString("html", html); err != nil {
		return nil, err
	}
	return g.newConverter(&html)
}

func (g *GlobalSettings) newConverter(data *string) (*Converter, error) {
	if err := g.lib.checkThread(); err != nil {
		return nil, err
	}
	if err := g.lib.state.usable(); err != nil {
		return nil, err
	}

	backend := g.lib.native()
	var converter Handle
	err := g.transfer(func(h Handle) {
		g.lib.log().Debug(g.lib.kind.String() + "_create_converter")
		converter = backend.CreateConverter(h, data)
	})
	if err != nil {
		return nil, err
	}
	return newConverter(g.lib, converter, g), nil
}

// Close releases settings that were never turned into a converter and ends
// the job, returning the engine to ready. It is a no-op once consumed.
func (g *GlobalSettings) Close() error {
	released, err := g.destroy()
	if err != nil {
		return err
	}
	if released && g.lib.state.release(g.gen) {
		g.lib.log().Debug(g.lib.kind.String() + " ready again")
	}
	return nil
}

// ObjectSettings configures one source of a PDF job. It is consumed when
// attached to a converter.
type ObjectSettings struct {
	settings
}

// Set assigns one object setting.
func (o *ObjectSettings) Set(name, value string) error {
	return o.set(name, value)
}

// SetAll assigns pairs in order, stopping at the first failure.
func (o *ObjectSettings) SetAll(pairs []Setting) error {
	return o.setAll(pairs)
}

// Close releases settings that were never attached. It is a no-op once
// attached.
func (o *ObjectSettings) Close() error {
	_, err := o.destroy()
	return err
}
