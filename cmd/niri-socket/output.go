package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ZXY595/async-niri-socket/ipc"
)

// Format selects how replies are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Printer writes replies and events to w in one format.
type Printer struct {
	format Format
	w      io.Writer
}

// NewPrinter returns a printer for format.
func NewPrinter(format Format, w io.Writer) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Printer{format: format, w: w}, nil
}

// Print writes v.
func (p *Printer) Print(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return p.printYAML(v)
	default:
		return p.printText(v)
	}
}

// PrintEvent writes one event. JSON output stays one event per line so it
// can be piped into line based tools.
func (p *Printer) PrintEvent(ev ipc.Event) error {
	switch p.format {
	case FormatJSON:
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", data)
		return err
	case FormatYAML:
		if _, err := io.WriteString(p.w, "---\n"); err != nil {
			return err
		}
		return p.printYAML(ev)
	default:
		_, err := fmt.Fprintf(p.w, "%s: %s\n", ev.Kind, compact(ev.Payload))
		return err
	}
}

// printYAML goes through JSON so the json tags and custom marshalers of the
// ipc types decide the field names. JSON is valid YAML, so the node tree
// keeps key order and number formatting.
func (p *Printer) printYAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	clearStyle(&node)

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// clearStyle drops the flow style the parser records for JSON input.
func clearStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func (p *Printer) printText(v any) error {
	switch v := v.(type) {
	case string:
		_, err := fmt.Fprintln(p.w, v)
		return err
	case []ipc.Window:
		return p.windowTable(v)
	case *ipc.Window:
		if v == nil {
			_, err := fmt.Fprintln(p.w, "no focused window")
			return err
		}
		return p.windowTable([]ipc.Window{*v})
	case []ipc.Workspace:
		return p.workspaceTable(v)
	case ipc.Response:
		if v.Payload == nil {
			_, err := fmt.Fprintln(p.w, v.Kind)
			return err
		}
		_, err := fmt.Fprintf(p.w, "%s: %s\n", v.Kind, compact(v.Payload))
		return err
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", data)
		return err
	}
}

func (p *Printer) windowTable(windows []ipc.Window) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORKSPACE\tAPP ID\tTITLE\tFLAGS")
	for _, w := range windows {
		var flags []string
		if w.IsFocused {
			flags = append(flags, "focused")
		}
		if w.IsFloating {
			flags = append(flags, "floating")
		}
		if w.IsUrgent {
			flags = append(flags, "urgent")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			w.ID, optUint(w.WorkspaceID), optString(w.AppID), optString(w.Title), strings.Join(flags, ","))
	}
	return tw.Flush()
}

func (p *Printer) workspaceTable(workspaces []ipc.Workspace) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIDX\tNAME\tOUTPUT\tACTIVE WINDOW\tFLAGS")
	for _, ws := range workspaces {
		var flags []string
		if ws.IsActive {
			flags = append(flags, "active")
		}
		if ws.IsFocused {
			flags = append(flags, "focused")
		}
		if ws.IsUrgent {
			flags = append(flags, "urgent")
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			ws.ID, ws.Idx, optString(ws.Name), optString(ws.Output), optUint(ws.ActiveWindowID), strings.Join(flags, ","))
	}
	return tw.Flush()
}

func optString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func optUint(n *uint64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

func compact(raw json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return string(raw)
	}
	return b.String()
}
