package main

import (
	"flag"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"

	gekko "github.com/gekko3d/gekko-morph"
	"github.com/gekko3d/gekko-morph/morph"
)

func init() {
	runtime.LockOSThread()
}

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
			gekko.LoggingModule{Prefix: "morphdemo", Debug: *debug},
			gekko.TimeModule{},
			gekko.NewPlatformWindow(1280, 720, "Morph Material"),
			gekko.InputModule{},
			gekko.AppExitModule{},
			gekko.AssetServerModule{Root: *assets},
			gekko.HierarchyModule{},
			gekko.SceneSpawnerModule{},
			gekko.DefaultRenderSettings(),
			gekko.MaterialModule[morph.MorphMaterial]{},
			gekko.FpsOverlayModule{},
			morph.WeightControlModule[morph.MorphExtension]{Rate: 0.9},
			morph.ScrollWeightModule{},
			morph.OrbitModule{},
			morph.RotatingLightModule{},
			morph.PlayerMaterialModule{},
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
		gekko.System(reportExit).
			InStage(gekko.Finale).
			InState(gekko.OnEnter(exiting)),
	)
}

func reportExit(cmd *gekko.Commands, t *gekko.Time, stats *gekko.FrameStats) {
	cmd.Logger().Infof("Exiting after %d frames (%.1fs, %s)", t.Frame, t.Elapsed.Seconds(), gekko.FormatFps(stats.Fps))
}

func setupScene(
	cmd *gekko.Commands,
	server *gekko.AssetServer,
	meshes *gekko.Assets[gekko.Mesh],
	standard *gekko.Assets[gekko.StandardMaterial],
	morphs *gekko.Assets[morph.MorphMaterial],
) {
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{-1.5, 0, 1.5}),
		gekko.SceneRoot{Scene: gekko.Load[gekko.GltfScene](server, "cube_morph_test.glb#Scene0")},
	)
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{-1.5, 0, -1.5}),
		gekko.SceneRoot{Scene: gekko.Load[gekko.GltfScene](server, "pole.glb#Scene0")},
	)

	base := gekko.DefaultStandardMaterial()
	base.BaseColorTexture = gekko.Load[gekko.Image](server, "image.png")
	base.OpaqueRenderMethod = gekko.OpaqueRenderForward
	cube := morphs.Add(morph.MorphMaterial{
		Base:      base,
		Extension: morph.NewMorphExtension(1, 0, 0),
	})
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{1.5, 0, -1.5}).
			WithRotation(mgl32.QuatRotate(math.Pi, mgl32.Vec3{0, 1, 0})),
		gekko.Mesh3d{Handle: gekko.Load[gekko.Mesh](server, "bruh2.glb#Mesh0/Primitive0")},
		gekko.MeshMaterial3d[morph.MorphMaterial]{Handle: cube},
	)

	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{1.5, 0, 1.5}).WithScale(2),
		gekko.SceneRoot{Scene: gekko.Load[gekko.GltfScene](server, "playa.glb#Scene0")},
		morph.PlayerCharacter{},
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

	lightColor := [3]float32{1, gekko.SrgbToLinear(0.95), gekko.SrgbToLinear(0.85)}
	cmd.AddEntity(
		gekko.NewTransform(mgl32.Vec3{}).WithRotation(gekko.EulerXYZ(-0.7, 0.5, 0)),
		gekko.NewDirectionalLight(lightColor, 10000, true),
		morph.RotatingLight{Radius: 7, Speed: 0.5},
	)
}
