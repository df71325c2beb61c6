package morph

import (
	gekko "github.com/gekko3d/gekko-morph"
)

// PlayerCharacter marks a scene root whose meshes are drawn with the morph
// material instead of their own.
type PlayerCharacter struct{}

type PlayerMaterialModule struct{}

func (PlayerMaterialModule) Install(app *gekko.App, cmd *gekko.Commands) {
	app.UseSystem(
		gekko.System(playerMaterialSystem).
			InStage(gekko.Update).
			RunAlways(),
	)
}

// playerMaterialSystem swaps the standard material of every descendant mesh
// for a morph material built on the same base, with all weights at zero.
// Entities that already switched no longer match, so each is replaced once.
func playerMaterialSystem(cmd *gekko.Commands, standard *gekko.Assets[gekko.StandardMaterial], morphs *gekko.Assets[MorphMaterial]) {
	gekko.MakeQuery1[PlayerCharacter](cmd).Map(func(root gekko.EntityId, _ *PlayerCharacter) bool {
		for _, eid := range gekko.Descendants(cmd, root) {
			current := gekko.GetComponent[gekko.MeshMaterial3d[gekko.StandardMaterial]](cmd, eid)
			if current == nil {
				continue
			}
			base := gekko.DefaultStandardMaterial()
			if m := standard.Get(current.Handle); m != nil {
				base = *m
			}
			h := morphs.Add(MorphMaterial{Base: base, Extension: NewMorphExtension(0, 0, 0)})
			cmd.RemoveComponents(eid, gekko.MeshMaterial3d[gekko.StandardMaterial]{})
			cmd.AddComponents(eid, gekko.MeshMaterial3d[MorphMaterial]{Handle: h})
		}
		return true
	})
}
