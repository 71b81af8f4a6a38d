package fiscalxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// node is a minimal element tree. Names carry resolved namespace URIs.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     strings.Builder
	children []*node
}

func parseTree(raw []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

func (n *node) is(local, space string) bool {
	return n.name.Local == local && n.name.Space == space
}

func (n *node) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// descendant returns the first element below n, in document order, with the
// given name.
func (n *node) descendant(local, space string) *node {
	for _, c := range n.children {
		if c.is(local, space) {
			return c
		}
		if found := c.descendant(local, space); found != nil {
			return found
		}
	}
	return nil
}

func (n *node) descendants(local, space string, out []*node) []*node {
	for _, c := range n.children {
		if c.is(local, space) {
			out = append(out, c)
		}
		out = c.descendants(local, space, out)
	}
	return out
}

// canonical re-serializes the tree. Element prefixes are not preserved; the
// default namespace is declared wherever it changes.
func (n *node) canonical() string {
	var b strings.Builder
	n.write(&b, "", map[string]string{})
	return b.String()
}

func (n *node) write(b *strings.Builder, inherited string, prefixes map[string]string) {
	scoped := prefixes
	copied := false
	for _, a := range n.attrs {
		if a.Name.Space != "xmlns" {
			continue
		}
		if !copied {
			scoped = make(map[string]string, len(prefixes)+1)
			for k, v := range prefixes {
				scoped[k] = v
			}
			copied = true
		}
		scoped[a.Value] = a.Name.Local
	}

	b.WriteByte('<')
	b.WriteString(n.name.Local)
	if n.name.Space != inherited {
		writeAttr(b, "xmlns", n.name.Space)
	}
	for _, a := range n.attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			// emitted above when it changes
		case a.Name.Space == "xmlns":
			writeAttr(b, "xmlns:"+a.Name.Local, a.Value)
		case a.Name.Space == "":
			writeAttr(b, a.Name.Local, a.Value)
		case a.Name.Space == xmlNamespace:
			writeAttr(b, "xml:"+a.Name.Local, a.Value)
		default:
			if prefix, ok := scoped[a.Name.Space]; ok {
				writeAttr(b, prefix+":"+a.Name.Local, a.Value)
			} else {
				writeAttr(b, a.Name.Local, a.Value)
			}
		}
	}

	text := n.text.String()
	if len(n.children) > 0 && strings.TrimSpace(text) == "" {
		text = ""
	}
	if text == "" && len(n.children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	if text != "" {
		_ = xml.EscapeText(b, []byte(text))
	}
	for _, c := range n.children {
		c.write(b, n.name.Space, scoped)
	}
	b.WriteString("</")
	b.WriteString(n.name.Local)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}
