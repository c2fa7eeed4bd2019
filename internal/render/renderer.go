// Package render turns shaped transcript data into documents.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"
)

// EscapeFunc transforms every value a template prints.
type EscapeFunc func(string) string

const escapeFuncName = "_escape"

var markupReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeMarkup escapes & < > " and ' for markup output.
func EscapeMarkup(s string) string {
	return markupReplacer.Replace(s)
}

// Renderer executes one parsed template. Each renderer owns its escaping
// strategy, so plain and markup renders never share mutable state.
type Renderer struct {
	tmpl *template.Template
}

// NewPlain parses src for output that must not be escaped.
func NewPlain(name, src string, funcs template.FuncMap) (*Renderer, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewEscaping parses src and routes every printed value through escape.
func NewEscaping(name, src string, funcs template.FuncMap, escape EscapeFunc) (*Renderer, error) {
	all := template.FuncMap{
		escapeFuncName: func(v any) string {
			if v == nil {
				return ""
			}
			return escape(fmt.Sprint(v))
		},
	}
	for k, fn := range funcs {
		all[k] = fn
	}
	tmpl, err := template.New(name).Funcs(all).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	for _, t := range tmpl.Templates() {
		if t.Tree != nil && t.Tree.Root != nil {
			escapeNode(t.Tree.Root)
		}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template against data.
func (r *Renderer) Render(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", r.tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

func escapeNode(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			escapeNode(child)
		}
	case *parse.ActionNode:
		// assignments print nothing
		if len(n.Pipe.Decl) > 0 {
			return
		}
		n.Pipe.Cmds = append(n.Pipe.Cmds, &parse.CommandNode{
			NodeType: parse.NodeCommand,
			Pos:      n.Pos,
			Args:     []parse.Node{parse.NewIdentifier(escapeFuncName).SetPos(n.Pos)},
		})
	case *parse.IfNode:
		escapeNode(n.List)
		escapeNode(n.ElseList)
	case *parse.RangeNode:
		escapeNode(n.List)
		escapeNode(n.ElseList)
	case *parse.WithNode:
		escapeNode(n.List)
		escapeNode(n.ElseList)
	}
}
