// Package erd models entity-relationship diagrams and their text form,
// the erDiagram dialect understood by Mermaid.
package erd

import (
	"fmt"
	"strings"
)

type Key string

const (
	KeyNone    Key = ""
	KeyPrimary Key = "PK"
	KeyForeign Key = "FK"
	KeyUnique  Key = "UK"
)

type Attribute struct {
	Type string
	Name string
	Key  Key
}

type Entity struct {
	Name       string
	Attributes []Attribute
}

// Cardinality is the marker placed between two entities, e.g. "||--o{".
type Cardinality string

const (
	OneToOne   Cardinality = "||--||"
	OneToMany  Cardinality = "||--o{"
	ManyToOne  Cardinality = "}o--||"
	ManyToMany Cardinality = "}o--o{"
)

type Relationship struct {
	Left        string
	Right       string
	Cardinality Cardinality
	Label       string
}

type Diagram struct {
	Entities      []Entity
	Relationships []Relationship
}

const header = "erDiagram"

// Render writes the diagram as erDiagram source. The output depends only on
// the diagram contents.
func (d Diagram) Render() string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, e := range d.Entities {
		fmt.Fprintf(&sb, "    %s {\n", e.Name)
		for _, a := range e.Attributes {
			if a.Key != KeyNone {
				fmt.Fprintf(&sb, "        %s %s %s\n", a.Type, a.Name, a.Key)
			} else {
				fmt.Fprintf(&sb, "        %s %s\n", a.Type, a.Name)
			}
		}
		sb.WriteString("    }\n")
	}
	for _, r := range d.Relationships {
		fmt.Fprintf(&sb, "    %s %s %s : %s\n", r.Left, r.Cardinality, r.Right, quoteLabel(r.Label))
	}
	return sb.String()
}

func quoteLabel(label string) string {
	if label == "" {
		return `""`
	}
	if strings.ContainsAny(label, " \t") {
		return `"` + label + `"`
	}
	return label
}

func (d Diagram) Entity(name string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}
