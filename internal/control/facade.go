// control/facade.go
// Author: momentics <momentics@gmail.com>
//
// Facade composing ConfigStore, DebugProbes and MetricsRegistry into the
// api.Control and api.Debug contracts consumed by cmd/agent's optional
// /debugz HTTP surface.

package control

// Facade implements api.Control and api.Debug over the three registries in
// this package.
type Facade struct {
	Config  *ConfigStore
	Probes  *DebugProbes
	Metrics *MetricsRegistry
}

// NewFacade wires fresh, empty registries together.
func NewFacade() *Facade {
	return &Facade{
		Config:  NewConfigStore(),
		Probes:  NewDebugProbes(),
		Metrics: NewMetricsRegistry(),
	}
}

// GetConfig implements api.Control.
func (f *Facade) GetConfig() map[string]any { return f.Config.GetSnapshot() }

// SetConfig implements api.Control.
func (f *Facade) SetConfig(cfg map[string]any) error {
	f.Config.SetConfig(cfg)
	return nil
}

// Stats implements api.Control.
func (f *Facade) Stats() map[string]any { return f.Metrics.GetSnapshot() }

// OnReload implements api.Control.
func (f *Facade) OnReload(fn func()) { f.Config.OnReload(fn) }

// RegisterDebugProbe implements api.Control.
func (f *Facade) RegisterDebugProbe(name string, fn func() any) { f.Probes.RegisterProbe(name, fn) }

// DumpState implements api.Debug.
func (f *Facade) DumpState() map[string]any { return f.Probes.DumpState() }

// RegisterProbe implements api.Debug.
func (f *Facade) RegisterProbe(name string, fn func() any) { f.Probes.RegisterProbe(name, fn) }
