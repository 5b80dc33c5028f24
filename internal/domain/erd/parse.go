package erd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

var ErrNotERDiagram = errors.New("source is not an erDiagram")

// ParseError points at the offending line of diagram source.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse reads erDiagram source as produced by Render. Blank lines and %%
// comments are ignored.
func Parse(src string) (Diagram, error) {
	var (
		d       Diagram
		current *Entity
		lineNo  int
		started bool
	)

	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}

		if !started {
			if line != header {
				return Diagram{}, ErrNotERDiagram
			}
			started = true
			continue
		}

		if current != nil {
			if line == "}" {
				d.Entities = append(d.Entities, *current)
				current = nil
				continue
			}
			attr, err := parseAttribute(line)
			if err != nil {
				return Diagram{}, &ParseError{Line: lineNo, Message: err.Error()}
			}
			current.Attributes = append(current.Attributes, attr)
			continue
		}

		if strings.HasSuffix(line, "{") {
			name := strings.TrimSpace(strings.TrimSuffix(line, "{"))
			if name == "" || strings.ContainsAny(name, " \t") {
				return Diagram{}, &ParseError{Line: lineNo, Message: "invalid entity name"}
			}
			current = &Entity{Name: name}
			continue
		}

		rel, err := parseRelationship(line)
		if err != nil {
			return Diagram{}, &ParseError{Line: lineNo, Message: err.Error()}
		}
		d.Relationships = append(d.Relationships, rel)
	}
	if err := sc.Err(); err != nil {
		return Diagram{}, fmt.Errorf("scan diagram: %w", err)
	}
	if !started {
		return Diagram{}, ErrNotERDiagram
	}
	if current != nil {
		return Diagram{}, &ParseError{Line: lineNo, Message: fmt.Sprintf("entity %s is not closed", current.Name)}
	}
	return d, nil
}

func parseAttribute(line string) (Attribute, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 2:
		return Attribute{Type: fields[0], Name: fields[1]}, nil
	case 3:
		k := Key(fields[2])
		if k != KeyPrimary && k != KeyForeign && k != KeyUnique {
			return Attribute{}, fmt.Errorf("unknown key %q", fields[2])
		}
		return Attribute{Type: fields[0], Name: fields[1], Key: k}, nil
	}
	return Attribute{}, fmt.Errorf("malformed attribute %q", line)
}

func parseRelationship(line string) (Relationship, error) {
	lhs, label, ok := strings.Cut(line, ":")
	if !ok {
		return Relationship{}, fmt.Errorf("relationship %q has no label", line)
	}
	fields := strings.Fields(lhs)
	if len(fields) != 3 {
		return Relationship{}, fmt.Errorf("malformed relationship %q", line)
	}
	if !validCardinality(fields[1]) {
		return Relationship{}, fmt.Errorf("invalid cardinality %q", fields[1])
	}
	return Relationship{
		Left:        fields[0],
		Cardinality: Cardinality(fields[1]),
		Right:       fields[2],
		Label:       strings.Trim(strings.TrimSpace(label), `"`),
	}, nil
}

func validCardinality(s string) bool {
	left, right, ok := strings.Cut(s, "--")
	if !ok {
		left, right, ok = strings.Cut(s, "..")
	}
	if !ok || len(left) != 2 || len(right) != 2 {
		return false
	}
	switch left {
	case "|o", "||", "}o", "}|":
	default:
		return false
	}
	switch right {
	case "o|", "||", "o{", "|{":
	default:
		return false
	}
	return true
}
