package assets

// Category selects the path segment a bare reference is filed under.
type Category int

const (
	Script Category = iota
	Stylesheet
)

// Segment returns the directory the framework would normally insert for
// this kind of tag.
func (c Category) Segment() string {
	switch c {
	case Stylesheet:
		return "stylesheets"
	default:
		return "javascripts"
	}
}

// Extension is the file extension a tag helper appends to references
// that have none.
func (c Category) Extension() string {
	switch c {
	case Stylesheet:
		return ".css"
	default:
		return ".js"
	}
}

func (c Category) String() string {
	return c.Segment()
}
