package manifold

// garbageList tracks resources acquired during one layer computation so
// they can be released unconditionally on every exit path (success,
// error, or cancel): any leaked handle is a defect.
//
// sdfx's sdf.SDF3 expression trees hold no external kernel handles of
// their own (they are plain Go values composed by closures, released by
// the garbage collector like any other value), so in this kernel the
// list has nothing concrete to close and ComputeLayer registers nothing
// with it. It is kept anyway, so that a future kernel swap — or a ToolBuilder
// failure path that does allocate a scratch file or cache — has a single
// place to register its release function rather than inventing cleanup
// ad hoc at each call site.
type garbageList struct {
	releasers []func()
}

func newGarbageList() *garbageList { return &garbageList{} }

// Register appends a release function, called in LIFO order by Release.
func (g *garbageList) Register(release func()) {
	g.releasers = append(g.releasers, release)
}

// Release runs every registered release function in reverse registration
// order (last acquired, first released) and clears the list.
func (g *garbageList) Release() {
	for i := len(g.releasers) - 1; i >= 0; i-- {
		g.releasers[i]()
	}
	g.releasers = nil
}
