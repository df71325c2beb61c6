package main

import (
	"flag"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"

	gekko "github.com/gekko3d/gekko-morph"
	"github.com/gekko3d/gekko-morph/morph"
)

func init() {
	runtime.LockOSThread()
}

const (
	cubeModel  = "cube_morph_test.glb"
	morphModel = "bruh2.glb"
)

type State = gekko.State

const (
	running State = iota
	exiting
)

func main() {
	assets := flag.String("assets", "assets", "asset root directory")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	app := gekko.NewAppBuilder().
		UseStates(running, exiting).
		UseModule(
			gekko.LoggingModule{Prefix: "morphinspect", Debug: *debug},
			gekko.TimeModule{},
			gekko.NewPlatformWindow(1280, 720, "Morph Inspect"),
			gekko.InputModule{},
			gekko.AppExitModule{},
			gekko.AssetServerModule{Root: *assets},
			gekko.HierarchyModule{},
			gekko.SceneSpawnerModule{},
			gekko.DefaultRenderSettings(),
			gekko.MaterialModule[morph.SplitMorphMaterial]{},
			gekko.FpsOverlayModule{},
			morph.WeightControlModule[morph.SplitMorphExtension]{Rate: 0.5},
			morph.ScrollWeightModule{},
			morph.OrbitModule{},
			morph.DumpModule{Paths: [2]string{cubeModel, morphModel}},
			sceneModule{},
		).
		Build()

	app.Run()
}

type sceneModule struct{}

func (sceneModule) Install(app *gekko.App, cmd *gekko.Commands) {
	app.UseSystem(
		gekko.System(setupScene).
			InStage(gekko.Startup),
	)
	app.UseSystem(
		gekko.System(func(cmd *gekko.Commands, t *gekko.Time) {
			cmd.Logger().Infof("Exiting after %d frames", t.Frame)
		}).
			InStage(gekko.Finale).
			InState(gekko.OnEnter(exiting)),
	)
}

func setupScene(
	cmd *gekko.Commands,
	server *gekko.AssetServer,
	meshes *gekko.Assets[gekko.Mesh],
	standard *gekko.Assets[gekko.StandardMaterial],
	morphs *gekko.Assets[morph.SplitMorphMaterial],
) {
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{-1.5, 0, 0}),
		gekko.SceneRoot{Scene: gekko.Load[gekko.GltfScene](server, cubeModel+"#Scene0")},
	)

	material := morphs.Add(morph.SplitMorphMaterial{
		Base:      gekko.DefaultStandardMaterial(),
		Extension: morph.SplitMorphExtension{Red: 1},
	})
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{1.5, 0, 0}),
		gekko.Mesh3d{Handle: gekko.Load[gekko.Mesh](server, morphModel+"#Mesh0/Primitive0")},
		gekko.MeshMaterial3d[morph.SplitMorphMaterial]{Handle: material},
	)

	grey := gekko.SrgbToLinear(0.6)
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{0, -1, 0}),
		gekko.Mesh3d{Handle: meshes.Add(*gekko.PlaneMesh(10))},
		gekko.MeshMaterial3d[gekko.StandardMaterial]{Handle: standard.Add(gekko.ColorMaterial(grey, grey, grey))},
	)

	camera := gekko.NewTransform(mgl32.Vec3{5, 5, 5})
	camera.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	cmd.AddEntity(camera, gekko.NewCamera())

	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{}).WithRotation(gekko.EulerXYZ(-0.7, 0.5, 0)),
		gekko.NewDirectionalLight([3]float32{1, 1, 1}, 10000, true),
	)
}
