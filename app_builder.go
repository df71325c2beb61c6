package gekko

import "reflect"

// Module bundles resources and systems. Install runs once, at build time.
type Module interface {
	Install(app *App, cmd *Commands)
}

// AppBuilder collects modules and installs them in order on Build, so a
// module can rely on resources added by the modules listed before it.
type AppBuilder struct {
	app     *App
	modules []Module
	built   bool
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: newApp()}
}

// UseStates makes the app stateful. It starts in initialState and stops
// after reaching finalState.
func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.finalState = finalState
	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	if b.built {
		panic("AppBuilder.Build called twice")
	}
	b.built = true

	cmd := b.app.Commands()
	for _, module := range b.modules {
		module.Install(b.app, cmd)
		b.app.Logger().Debugf("Installed %s", reflect.TypeOf(module))
	}
	return b.app
}
