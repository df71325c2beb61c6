package gekko

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState is the shared glfw window. The renderer and input read it.
type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
	resized      bool
}

func (s *WindowState) ShouldClose() bool {
	return s.windowGlfw != nil && s.windowGlfw.ShouldClose()
}

func (s *WindowState) Title() string {
	return s.windowTitle
}

// PlatformWindowModule creates the single glfw window. Install is a no-op
// when a WindowState resource already exists.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

func NewPlatformWindow(width, height int, title string) PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "Gekko"
	}
	return PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if Resource[WindowState](app) != nil {
		return
	}
	m = NewPlatformWindow(m.Width, m.Height, m.Title)

	app.Logger().Infof("Creating window %dx%d %q", m.Width, m.Height, m.Title)
	cmd.AddResources(createWindowState(m.Width, m.Height, m.Title))
	app.UseSystem(
		System(windowSizeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // wgpu owns the surface
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
}

func windowSizeSystem(s *WindowState) {
	w, h := s.windowGlfw.GetFramebufferSize()
	s.resized = w != s.WindowWidth || h != s.WindowHeight
	if s.resized {
		s.WindowWidth, s.WindowHeight = w, h
	}
}

// AppExitModule ends the app when the window is closed or Escape is pressed.
type AppExitModule struct{}

func (AppExitModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(appExitSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func appExitSystem(cmd *Commands, s *WindowState, input *Input) {
	if s.ShouldClose() || input.JustPressed[KeyEscape] {
		cmd.Exit()
	}
}
