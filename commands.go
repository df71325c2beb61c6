package gekko

// Commands is the systems' handle on the world. Structural changes (spawn,
// despawn, add/remove components) are buffered until the end of the stage.
type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompRemovals = append(cmd.app.pendingCompRemovals, pendingCompRemoval{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveEntity(entityId EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, entityId)
}

func (cmd *Commands) HasEntity(entityId EntityId) bool {
	return cmd.app.ecs.hasEntity(entityId)
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

func (cmd *Commands) GetAllComponents(entityId EntityId) []any {
	ecs := cmd.app.ecs
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]

	row := arch.entities[entityId]

	var res []any
	for _, componentId := range arch.key {
		val := columnGet(arch.componentData[componentId], row)
		res = append(res, val.Interface())
	}
	return res
}

// GetComponent returns a pointer to the entity's stored T, or nil when the
// entity does not exist or lacks T. The pointer is valid until the next flush.
func GetComponent[T any](cmd *Commands, entityId EntityId) *T {
	return component[T](cmd.app.ecs, entityId)
}

func HasComponent[T any](cmd *Commands, entityId EntityId) bool {
	return GetComponent[T](cmd, entityId) != nil
}

// Exit moves a stateful app to its final state and stops a stateless one.
func (cmd *Commands) Exit() {
	if cmd.app.stateful {
		cmd.app.changeState(cmd.app.finalState)
		return
	}
	cmd.app.Stop()
}
