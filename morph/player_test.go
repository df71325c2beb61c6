package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gekko "github.com/gekko3d/gekko-morph"
)

func TestPlayerMaterialSystem(t *testing.T) {
	app := gekko.NewApp()
	cmd := app.Commands()
	standard := gekko.NewAssets[gekko.StandardMaterial]()
	morphs := gekko.NewAssets[MorphMaterial]()

	red := standard.Add(gekko.ColorMaterial(1, 0, 0))
	root := cmd.AddEntity(PlayerCharacter{})
	body := cmd.AddEntity(gekko.Parent{Entity: root}, gekko.MeshMaterial3d[gekko.StandardMaterial]{Handle: red})
	hat := cmd.AddEntity(gekko.Parent{Entity: root}, gekko.MeshMaterial3d[gekko.StandardMaterial]{Handle: gekko.HandleFromId[gekko.StandardMaterial]("missing")})
	other := cmd.AddEntity(gekko.MeshMaterial3d[gekko.StandardMaterial]{Handle: red})
	cmd.AddComponents(root, gekko.Children{Entities: []gekko.EntityId{body, hat}})
	app.FlushCommands()

	playerMaterialSystem(cmd, standard, morphs)
	app.FlushCommands()

	assert.False(t, gekko.HasComponent[gekko.MeshMaterial3d[gekko.StandardMaterial]](cmd, body))
	bodyMat := gekko.GetComponent[gekko.MeshMaterial3d[MorphMaterial]](cmd, body)
	require.NotNil(t, bodyMat)
	m := morphs.Get(bodyMat.Handle)
	require.NotNil(t, m)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, m.Base.BaseColor)
	assert.Equal(t, Channels{}, m.Extension.Channels())

	hatMat := gekko.GetComponent[gekko.MeshMaterial3d[MorphMaterial]](cmd, hat)
	require.NotNil(t, hatMat)
	assert.Equal(t, gekko.DefaultStandardMaterial(), morphs.Get(hatMat.Handle).Base)

	assert.True(t, gekko.HasComponent[gekko.MeshMaterial3d[gekko.StandardMaterial]](cmd, other), "non-player meshes keep their material")

	playerMaterialSystem(cmd, standard, morphs)
	app.FlushCommands()
	assert.Equal(t, 2, morphs.Len(), "each mesh is replaced once")
}
