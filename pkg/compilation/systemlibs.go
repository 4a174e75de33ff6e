package compilation

// systemLibsAdapter satisfies legacybackend.SystemLibs over Compilation's
// system-libs slice. Kept separate from Compilation's exported API so
// nothing outside this package can mutate the slice except through Add,
// which is what enforces spec.md §5's queue-monotonicity invariant: a new
// index is only handed out, and only once, when a name is genuinely new.
type systemLibsAdapter struct {
	c *Compilation
}

func (a systemLibsAdapter) Libs() []string {
	return a.c.systemLibs
}

func (a systemLibsAdapter) Add(name string) (index int, added bool) {
	for i, existing := range a.c.systemLibs {
		if existing == name {
			return i, false
		}
	}
	a.c.systemLibs = append(a.c.systemLibs, name)
	return len(a.c.systemLibs) - 1, true
}

// SystemLibs returns the append-only system-libs sequence (§3 "the index
// variant carries a position into the system-libs sequence; that sequence
// must not be reordered while such jobs are in flight").
func (c *Compilation) SystemLibs() []string {
	return c.systemLibs
}
