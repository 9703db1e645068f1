package plantuml

import "strings"

// Statement is one unit of PlantUML output. The generator builds a flat
// list of statements and Render serializes it in a single pass, so the
// element passes and the sequence ordering can be tested on structure
// instead of text.
type Statement interface {
	write(w *writer)
}

type writer struct {
	b      strings.Builder
	indent int
}

func (w *writer) line(s string) {
	if s != "" {
		w.b.WriteString(strings.Repeat("    ", w.indent))
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// Line is emitted verbatim (directives, titles, preamble, blank lines).
type Line string

func (l Line) write(w *writer) { w.line(string(l)) }

// Macro is a C4-PlantUML macro call such as System(id, "name", "desc").
// Args are already formatted tokens.
type Macro struct {
	Name string
	Args []string
}

func (m Macro) String() string {
	return m.Name + "(" + strings.Join(m.Args, ", ") + ")"
}

func (m Macro) write(w *writer) { w.line(m.String()) }

// BoundaryBlock is a boundary macro with its children nested one level.
type BoundaryBlock struct {
	Open     Macro
	Children []Statement
}

func (b BoundaryBlock) write(w *writer) {
	w.line(b.Open.String() + " {")
	w.indent++
	for _, c := range b.Children {
		c.write(w)
	}
	w.indent--
	w.line("}")
}

// Note is a floating note with an alias.
type Note struct {
	Alias string
	Lines []string
}

func (n Note) write(w *writer) {
	w.line("note as " + n.Alias)
	for _, l := range n.Lines {
		w.line(l)
	}
	w.line("end note")
}

// DividerMarker opens or closes a sequence phase.
type DividerMarker struct {
	Title string
	End   bool
}

func (d DividerMarker) write(w *writer) {
	if d.End {
		w.line("== End of " + d.Title + " ==")
		return
	}
	w.line("== " + d.Title + " ==")
}

// GroupMarker opens or closes a sequence group.
type GroupMarker struct {
	Title string
	End   bool
}

func (g GroupMarker) write(w *writer) {
	if g.End {
		w.line("end")
		return
	}
	w.line("group " + g.Title)
}

// RelEdge is a relationship macro call. From/To are element ids.
type RelEdge struct {
	Macro string
	From  string
	To    string
	Args  []string
}

func (r RelEdge) write(w *writer) {
	args := append([]string{r.From, r.To}, r.Args...)
	w.line(Macro{Name: r.Macro, Args: args}.String())
}

// Render serializes statements to PlantUML text.
func Render(stmts []Statement) string {
	w := &writer{}
	for _, s := range stmts {
		s.write(w)
	}
	return w.b.String()
}

// quote renders a PlantUML string literal. Double quotes would end the
// literal early, so they become single quotes; newlines become \n.
func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

var quoteReplacer = strings.NewReplacer(`"`, `'`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// named renders a $name="value" keyword argument.
func named(name, value string) string {
	return "$" + name + "=" + quote(value)
}
