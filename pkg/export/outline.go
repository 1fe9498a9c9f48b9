// Package export renders structured documents into downloadable file formats.
package export

// Outline is a format-neutral document: a title, a summary paragraph,
// key/value facts, top-level lists and repeated sections.
type Outline struct {
	Title    string
	Summary  string
	Fields   []Field
	Lists    []List
	Sections []Section
	Closing  []List
}

// Field is a labelled single value.
type Field struct {
	Label string
	Value string
}

// List is a headed group of items. Prose lists render items as paragraphs instead of bullets.
type List struct {
	Heading string
	Items   []string
	Prose   bool
}

// Section is one repeated unit of the outline, such as a week.
type Section struct {
	Heading string
	Fields  []Field
	Lists   []List
}

func nonEmpty(lists []List) []List {
	out := make([]List, 0, len(lists))
	for _, l := range lists {
		if len(l.Items) > 0 {
			out = append(out, l)
		}
	}
	return out
}
