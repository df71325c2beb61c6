package gekko

import (
	"fmt"
	"slices"
)

type State int

// Stage is a named step of a frame. Systems run stage by stage and
// commands are flushed after each one.
type Stage struct {
	Name string
}

var (
	// Startup systems run once, before the first frame.
	Startup    = Stage{Name: "Startup"}
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}
}

type statePhase int

const (
	enter statePhase = iota
	execute
	exit
)

func (p statePhase) String() string {
	switch p {
	case enter:
		return "enter"
	case execute:
		return "execute"
	case exit:
		return "exit"
	}
	return fmt.Sprintf("statePhase(%d)", int(p))
}

// stateSchedule binds a system to one phase of one state.
type stateSchedule struct {
	state State
	phase statePhase
}

func OnEnter(state State) stateSchedule   { return stateSchedule{state: state, phase: enter} }
func OnExecute(state State) stateSchedule { return stateSchedule{state: state, phase: execute} }
func OnExit(state State) stateSchedule    { return stateSchedule{state: state, phase: exit} }

type systemSchedule struct {
	system    systemFn
	stage     Stage
	runAlways bool
	state     *stateSchedule
}

// System wraps a system function. Its parameters must be *Commands or
// pointers to resources; they are resolved on every call. Without further
// options it runs in Update on every frame.
func System(system systemFn) systemSchedule {
	return systemSchedule{system: system, stage: Update}
}

func (sched systemSchedule) InStage(s Stage) systemSchedule {
	sched.stage = s
	return sched
}

// InState restricts the system to a state phase. RunAlways overrides it.
func (sched systemSchedule) InState(s stateSchedule) systemSchedule {
	sched.state = &s
	return sched
}

func (sched systemSchedule) RunAlways() systemSchedule {
	sched.runAlways = true
	return sched
}

type stagePosition struct {
	after  bool
	target Stage
}

func BeforeStage(s Stage) stagePosition { return stagePosition{target: s} }
func AfterStage(s Stage) stagePosition  { return stagePosition{after: true, target: s} }

// UseStage inserts a custom stage next to an existing one.
func (app *App) UseStage(stage Stage, where stagePosition) *App {
	if app.hasStage(stage.Name) {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}
	idx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if idx == -1 {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}
	if where.after {
		idx++
	}
	app.stages = slices.Insert(app.stages, idx, stage)
	return app
}

func (app *App) hasStage(name string) bool {
	return slices.ContainsFunc(app.stages, func(s Stage) bool { return s.Name == name })
}

func (app *App) UseSystem(sched systemSchedule) *App {
	stage := sched.stage.Name
	if stage == Startup.Name {
		app.startupSystems = append(app.startupSystems, sched.system)
		return app
	}
	if !app.hasStage(stage) {
		panic(fmt.Sprintf("Stage %v doesn't exist", stage))
	}

	if sched.runAlways || sched.state == nil {
		app.systemsStateless[stage] = append(app.systemsStateless[stage], sched.system)
		return app
	}

	if !app.stateful {
		panic("Trying to use a stateful system in a stateless app.")
	}
	st := *sched.state
	if st.state < app.initialState || st.state > app.finalState {
		panic(fmt.Sprintf("State %v doesn't exist", st.state))
	}

	byState, ok := app.systems[stage]
	if !ok {
		byState = make(map[State]map[statePhase][]systemFn)
		app.systems[stage] = byState
	}
	byPhase, ok := byState[st.state]
	if !ok {
		byPhase = make(map[statePhase][]systemFn)
		byState[st.state] = byPhase
	}
	byPhase[st.phase] = append(byPhase[st.phase], sched.system)
	return app
}
