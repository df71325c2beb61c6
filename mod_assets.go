package gekko

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAssetNotLoaded = errors.New("asset not loaded")
	ErrLabelNotFound  = errors.New("asset label not found")
)

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// Shader is WGSL source loaded from a file.
type Shader struct {
	Path   string
	Source string
}

type loadStatus struct {
	state LoadState
	err   error
}

// loadResult is produced off the main thread and applied by the drain system.
type loadResult struct {
	file  string
	apply func(s *AssetServer)
	err   error
}

// AssetServer loads files in the background and publishes them into the
// typed stores once per frame. Paths are relative to Root and may carry a
// "#Label" selecting a sub-asset.
type AssetServer struct {
	Root string

	Gltfs     *Assets[Gltf]
	Scenes    *Assets[GltfScene]
	Meshes    *Assets[Mesh]
	Images    *Assets[Image]
	Shaders   *Assets[Shader]
	Materials *Assets[StandardMaterial]

	mu      sync.Mutex
	states  map[string]*loadStatus
	owners  map[AssetId]string
	pending []loadResult
	wg      sync.WaitGroup
}

func NewAssetServer(root string) *AssetServer {
	return &AssetServer{
		Root:      root,
		Gltfs:     NewAssets[Gltf](),
		Scenes:    NewAssets[GltfScene](),
		Meshes:    NewAssets[Mesh](),
		Images:    NewAssets[Image](),
		Shaders:   NewAssets[Shader](),
		Materials: NewAssets[StandardMaterial](),
		states:    make(map[string]*loadStatus),
		owners:    make(map[AssetId]string),
	}
}

type AssetServerModule struct {
	Root string
}

func (m AssetServerModule) Install(app *App, cmd *Commands) {
	root := m.Root
	if root == "" {
		root = "assets"
	}
	server := NewAssetServer(root)
	cmd.AddResources(server)
	shareStore(app, cmd, &server.Gltfs)
	shareStore(app, cmd, &server.Scenes)
	shareStore(app, cmd, &server.Meshes)
	shareStore(app, cmd, &server.Images)
	shareStore(app, cmd, &server.Shaders)
	shareStore(app, cmd, &server.Materials)
	app.UseSystem(
		System(assetServerSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// shareStore publishes the server's store as a resource, or adopts one a
// module installed earlier.
func shareStore[T any](app *App, cmd *Commands, store **Assets[T]) {
	if existing := Resource[Assets[T]](app); existing != nil {
		*store = existing
		return
	}
	cmd.AddResources(*store)
}

func assetServerSystem(cmd *Commands, server *AssetServer) {
	for _, failure := range server.drain() {
		cmd.Logger().Errorf("Failed to load %s: %v", failure.file, failure.err)
	}
}

// SplitAssetPath splits "file#Label" into its parts.
func SplitAssetPath(path string) (file string, label string) {
	file, label, _ = strings.Cut(path, "#")
	return file, label
}

// subAssetHandle derives a stable handle from a file and label, so the
// handle exists before the file is decoded.
func subAssetHandle[T any](file string, label string) Handle[T] {
	name := file
	if label != "" {
		name = file + "#" + label
	}
	return Handle[T]{id: AssetId(uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String())}
}

// Load starts loading the file behind path (once) and returns the handle of
// the requested asset or sub-asset.
func Load[T any](server *AssetServer, path string) Handle[T] {
	file, label := SplitAssetPath(path)
	storeFor[T](server) // panics on unsupported kinds
	h := subAssetHandle[T](file, label)
	server.startLoad(file, h.id)
	return h
}

// LoadStateOf reports the state of h. A loaded file lacking the requested
// label is Failed with ErrLabelNotFound.
func LoadStateOf[T any](server *AssetServer, h Handle[T]) (LoadState, error) {
	if storeFor[T](server).Contains(h) {
		return Loaded, nil
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	file, ok := server.owners[h.id]
	if !ok {
		return NotLoaded, nil
	}
	status := server.states[file]
	if status.state == Loaded {
		return Failed, fmt.Errorf("%w: %s", ErrLabelNotFound, file)
	}
	return status.state, status.err
}

// GetLoaded returns the asset behind h or ErrAssetNotLoaded.
func GetLoaded[T any](server *AssetServer, h Handle[T]) (*T, error) {
	if v := storeFor[T](server).Get(h); v != nil {
		return v, nil
	}
	state, err := LoadStateOf(server, h)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotLoaded, state)
}

func storeFor[T any](s *AssetServer) *Assets[T] {
	var zero T
	switch any(zero).(type) {
	case Gltf:
		return any(s.Gltfs).(*Assets[T])
	case GltfScene:
		return any(s.Scenes).(*Assets[T])
	case Mesh:
		return any(s.Meshes).(*Assets[T])
	case Image:
		return any(s.Images).(*Assets[T])
	case Shader:
		return any(s.Shaders).(*Assets[T])
	case StandardMaterial:
		return any(s.Materials).(*Assets[T])
	}
	panic(fmt.Sprintf("AssetServer cannot load %T", zero))
}

func (s *AssetServer) startLoad(file string, id AssetId) {
	s.mu.Lock()
	s.owners[id] = file
	if _, ok := s.states[file]; ok {
		s.mu.Unlock()
		return
	}
	s.states[file] = &loadStatus{state: Loading}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		apply, err := s.loadFile(file)
		s.mu.Lock()
		s.pending = append(s.pending, loadResult{file: file, apply: apply, err: err})
		s.mu.Unlock()
	}()
}

func (s *AssetServer) loadFile(file string) (func(*AssetServer), error) {
	full := filepath.Join(s.Root, file)
	switch strings.ToLower(filepath.Ext(file)) {
	case ".gltf", ".glb":
		load, err := loadGltfFile(full, file)
		if err != nil {
			return nil, err
		}
		return load.register, nil

	case ".png", ".jpg", ".jpeg", ".webp", ".bmp":
		f, err := os.Open(full)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err := decodeImage(f)
		if err != nil {
			return nil, err
		}
		return func(s *AssetServer) {
			s.Images.Set(subAssetHandle[Image](file, ""), img)
		}, nil

	case ".wgsl":
		src, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		shader := Shader{Path: file, Source: string(src)}
		return func(s *AssetServer) {
			s.Shaders.Set(subAssetHandle[Shader](file, ""), shader)
		}, nil
	}
	return nil, fmt.Errorf("no loader for %q", file)
}

func (load *gltfLoad) register(s *AssetServer) {
	file := load.gltf.Path
	for label, img := range load.images {
		s.Images.Set(subAssetHandle[Image](file, label), img)
	}
	for label, mat := range load.materials {
		s.Materials.Set(subAssetHandle[StandardMaterial](file, label), mat)
	}
	for label, mesh := range load.meshes {
		s.Meshes.Set(subAssetHandle[Mesh](file, label), mesh)
	}
	for label, scene := range load.scenes {
		s.Scenes.Set(subAssetHandle[GltfScene](file, label), scene)
	}
	s.Gltfs.Set(subAssetHandle[Gltf](file, ""), load.gltf)
}

// drain applies finished loads on the calling goroutine and returns the
// failed ones.
func (s *AssetServer) drain() []loadResult {
	s.mu.Lock()
	done := s.pending
	s.pending = nil
	s.mu.Unlock()

	var failed []loadResult
	for _, res := range done {
		status := &loadStatus{state: Loaded}
		if res.err != nil {
			status = &loadStatus{state: Failed, err: res.err}
			failed = append(failed, res)
		} else {
			res.apply(s)
		}
		s.mu.Lock()
		s.states[res.file] = status
		s.mu.Unlock()
	}
	return failed
}
