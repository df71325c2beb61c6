package gekko

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameLog struct {
	calls []string
}

type counter struct {
	n int
}

func TestApp_ChangeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_AddResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	log := &frameLog{}
	app.addResources(log)
	assert.Contains(t, app.resources, reflect.TypeOf(log).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(log)), func() {
		app.addResources(log)
	})
	require.PanicsWithValue(t, "resource gekko.counter must be passed by pointer", func() {
		app.addResources(counter{})
	})

	app.addResources(&counter{n: 3})
	assert.Equal(t, 3, Resource[counter](app).n)
	assert.Nil(t, Resource[Time](app))
}

func TestApp_StartupRunsOnceAndFlushes(t *testing.T) {
	app := NewApp()
	log := &frameLog{}
	app.Commands().AddResources(log)

	var spawned EntityId
	app.UseSystem(System(func(cmd *Commands, log *frameLog) {
		log.calls = append(log.calls, "startup")
		spawned = cmd.AddEntity(Parent{Entity: 5})
	}).InStage(Startup))
	app.UseSystem(System(func(cmd *Commands, log *frameLog) {
		// entities added during startup are visible on the first frame
		if p := GetComponent[Parent](cmd, spawned); p != nil {
			log.calls = append(log.calls, fmt.Sprintf("update %d", p.Entity))
		}
	}).InStage(Update))

	require.True(t, app.Step())
	require.True(t, app.Step())
	assert.Equal(t, []string{"startup", "update 5", "update 5"}, log.calls)
}

func TestApp_CommandsFlushBetweenStages(t *testing.T) {
	app := NewApp()
	c := &counter{}
	app.Commands().AddResources(c)

	app.UseSystem(System(func(cmd *Commands) {
		cmd.AddEntity(Mesh3d{})
	}).InStage(PreUpdate))
	app.UseSystem(System(func(cmd *Commands, c *counter) {
		c.n = MakeQuery1[Mesh3d](cmd).Count()
	}).InStage(Update))

	app.Step()
	assert.Equal(t, 1, c.n)
	app.Step()
	assert.Equal(t, 2, c.n)
}

func TestApp_StagesRunInOrder(t *testing.T) {
	app := NewApp()
	log := &frameLog{}
	app.Commands().AddResources(log)

	for _, stage := range []Stage{Finale, Render, Update, Prelude} {
		name := stage.Name
		app.UseSystem(System(func(log *frameLog) {
			log.calls = append(log.calls, name)
		}).InStage(stage))
	}

	app.Step()
	assert.Equal(t, []string{"Prelude", "Update", "Render", "Finale"}, log.calls)
}

func TestApp_ExitStatefulReachesFinalState(t *testing.T) {
	const (
		running State = iota
		done
	)
	app := NewAppBuilder().UseStates(running, done).Build()
	log := &frameLog{}
	app.Commands().AddResources(log)

	app.UseSystem(System(func(cmd *Commands) {
		cmd.Exit()
	}).InStage(PostUpdate).RunAlways())
	app.UseSystem(System(func(log *frameLog) {
		log.calls = append(log.calls, "exit done")
	}).InStage(Update).InState(OnExit(done)))

	assert.False(t, app.Step())
	assert.Equal(t, done, app.State())
	assert.Equal(t, []string{"exit done"}, log.calls)
	assert.False(t, app.Step())
}

func TestApp_ExitStatelessStops(t *testing.T) {
	app := NewApp()
	c := &counter{}
	app.Commands().AddResources(c)
	app.UseSystem(System(func(cmd *Commands, c *counter) {
		c.n++
		if c.n == 3 {
			cmd.Exit()
		}
	}))

	app.Run()
	assert.Equal(t, 3, c.n)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(*Time) {}))

	assert.Panics(t, func() { app.Step() })
}

func TestApp_NonPointerParameterPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(Commands) {}))

	assert.Panics(t, func() { app.Step() })
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewApp()
	assert.PanicsWithValue(t, "Trying to use a stateful system in a stateless app.", func() {
		app.UseSystem(System(func() {}).InState(OnEnter(0)))
	})
}
