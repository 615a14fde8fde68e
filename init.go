package cb

// Init performs process-wide setup for the cb package. There is currently
// nothing to do (the page size is queried lazily per Create), but the hook
// exists to match the library's external interface and give future global
// state — e.g. a shared mlock budget — a home.
func Init() error {
	return nil
}

// Link returns the previous generation of c, if c has been through a
// resize, or nil if c is the original handle. The returned CB is not owned
// by c and is never automatically destroyed.
func (c *CB) Link() *CB {
	return c.link
}

// StatWastage returns the cumulative bytes lost to alignment padding and
// skipped contiguous-range remainders.
func (c *CB) StatWastage() uint64 {
	return c.statWastage
}
