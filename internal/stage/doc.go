// Package stage is the relocation dispatcher: the single point portals call to
// mount, update and unmount content in a named container.
//
// A Stage owns the key sequence, the registry of container managers and the
// pending command queue. Commands for a container whose manager is registered
// are applied immediately; otherwise they wait in the queue and are replayed,
// in order and exactly once, when the manager registers.
//
// During the initial composition pass every command is buffered, even for
// registered managers, so that the first visible frame reflects the complete
// set of relocations:
//
//	s := stage.New()
//	s.Compose(func() {
//		layer := s.NewContainer("Layer", "overlay")
//		layer.Mount()
//		// declare portals here
//	})
//
// Commands for a single container are applied in the order they were issued.
// Commands for different containers have no relative ordering guarantee.
package stage
