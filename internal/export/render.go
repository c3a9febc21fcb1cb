package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// Table renders rs as a plain-text table. The header comes from the first
// row; each row prints its own values in its own key order.
func Table(rs model.ResultSet) string {
	t := table.NewWriter()

	header := table.Row{}
	for _, h := range rs.Columns() {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for _, row := range rs {
		r := table.Row{}
		for _, v := range row.Values() {
			r = append(r, model.FormatValue(v))
		}
		t.AppendRow(r)
	}

	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t.Render()
}

// JSON renders rs as an indented JSON array with row key order preserved.
func JSON(rs model.ResultSet) ([]byte, error) {
	if rs == nil {
		rs = model.ResultSet{}
	}
	raw, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("export: marshal json: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAML renders rs as a YAML sequence of mappings with key order preserved.
func YAML(rs model.ResultSet) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rs {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range row.Keys() {
			v, _ := row.Value(k)
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k},
				scalarNode(v),
			)
		}
		seq.Content = append(seq.Content, m)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scalarNode(v any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: model.FormatValue(v)}
	switch t := v.(type) {
	case nil:
		n.Tag, n.Value = "!!null", "null"
	case bool:
		n.Tag = "!!bool"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			n.Tag = "!!int"
		} else {
			n.Tag = "!!float"
		}
	case float64:
		n.Tag = "!!float"
	default:
		n.Tag = "!!str"
	}
	return n
}
