// Package colortags turns free-text color input into an ordered,
// duplicate-free list of tags and supports editing a tag in place.
package colortags

import "strings"

// Split breaks text on commas, trims each token and drops blank ones.
func Split(text string) []string {
	parts := strings.Split(text, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Editor holds the tag list plus the uncommitted entry text and, while a tag
// is being edited, its index and working value. The zero value is ready to use.
//
// Tags never contain duplicates (exact, case-sensitive match).
type Editor struct {
	tags         []string
	pendingInput string
	editing      bool
	editingIndex int
	editingValue string
}

// New returns an editor seeded with initial, skipping blank and repeated entries.
func New(initial []string) *Editor {
	e := &Editor{}
	for _, t := range initial {
		e.appendTag(strings.TrimSpace(t))
	}
	return e
}

// Tags returns a copy of the committed tags in display order.
func (e *Editor) Tags() []string {
	out := make([]string, len(e.tags))
	copy(out, e.tags)
	return out
}

// PendingInput returns the text typed but not yet committed.
func (e *Editor) PendingInput() string {
	return e.pendingInput
}

// SetPendingInput records the entry field's current text.
func (e *Editor) SetPendingInput(text string) {
	e.pendingInput = text
}

// Editing reports the tag under edit, if any.
func (e *Editor) Editing() (index int, value string, ok bool) {
	if !e.editing {
		return 0, "", false
	}
	return e.editingIndex, e.editingValue, true
}

// Contains reports whether tag is present.
func (e *Editor) Contains(tag string) bool {
	return e.indexOf(tag) >= 0
}

// CommitInput appends every new token of text, in order, and clears the
// pending input. Tokens already present are skipped, never moved.
func (e *Editor) CommitInput(text string) {
	for _, tok := range Split(text) {
		e.appendTag(tok)
	}
	e.pendingInput = ""
}

// CommitPending commits the current pending input.
func (e *Editor) CommitPending() {
	e.CommitInput(e.pendingInput)
}

// RemoveTag deletes value. Absent values are ignored.
func (e *Editor) RemoveTag(value string) {
	i := e.indexOf(value)
	if i < 0 {
		return
	}
	e.tags = append(e.tags[:i], e.tags[i+1:]...)
	if e.editing {
		switch {
		case e.editingIndex == i:
			e.editing = false
			e.editingValue = ""
		case e.editingIndex > i:
			e.editingIndex--
		}
	}
}

// BeginEdit enters edit mode for the tag at index, seeding the working value
// with its text. Out-of-range indexes are ignored.
func (e *Editor) BeginEdit(index int) {
	if index < 0 || index >= len(e.tags) {
		return
	}
	e.editing = true
	e.editingIndex = index
	e.editingValue = e.tags[index]
}

// SetEditingValue records the edit field's current text. It is ignored
// outside edit mode.
func (e *Editor) SetEditingValue(text string) {
	if e.editing {
		e.editingValue = text
	}
}

// CommitEdit applies the working value to the tag under edit and leaves edit
// mode. index is the position the edit was begun at; the editor tracks that
// tag across removals, so the commit always lands on it. The first token
// replaces the tag in place unless it duplicates another tag; further tokens
// are appended when new. A blank value leaves the tag unchanged. There is no
// cancel: leaving the field commits.
func (e *Editor) CommitEdit(index int) {
	if !e.editing {
		return
	}
	value := e.editingValue
	index = e.editingIndex
	e.editing = false
	e.editingValue = ""

	if index < 0 || index >= len(e.tags) {
		return
	}
	tokens := Split(value)
	if len(tokens) == 0 {
		return
	}
	if e.indexOf(tokens[0]) < 0 {
		e.tags[index] = tokens[0]
	}
	for _, tok := range tokens[1:] {
		e.appendTag(tok)
	}
}

func (e *Editor) appendTag(tag string) {
	if tag == "" || e.indexOf(tag) >= 0 {
		return
	}
	e.tags = append(e.tags, tag)
}

func (e *Editor) indexOf(tag string) int {
	for i, t := range e.tags {
		if t == tag {
			return i
		}
	}
	return -1
}
