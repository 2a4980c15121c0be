package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/anthonyesau/blender-custom-tools/ops"
	"github.com/anthonyesau/blender-custom-tools/scene"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleDim         = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell        = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

func printReport(w io.Writer, op ops.Operator, r *ops.Report) {
	if r.Status == ops.StatusCancelled {
		printError(w, "%s cancelled: %s", op.Label(), r.Error)
		return
	}
	for _, o := range r.Objects {
		switch {
		case o.Skipped:
			printWarning(w, "%s skipped: %s", o.Object, o.Error)
		case o.Error != "":
			printError(w, "%s: %s", o.Object, o.Error)
		default:
			printSuccess(w, "%s", o.Object)
		}
		for _, d := range o.Details {
			printDetail(w, "%s", d)
		}
	}
	if r.Error != "" {
		printError(w, "%s interrupted: %s", op.Label(), r.Error)
	}
	printInfo(w, "%s: %d objects, %d skipped, %d failed (%s)", op.Label(), len(r.Objects), r.Skipped(), r.Failed(), r.Duration.Round(time.Millisecond))
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%.3f", f)
	}
	return strings.Join(parts, " ")
}

func sceneTable(s *scene.Scene) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers("Object", "Parent", "Mode", "Location", "Rotation", "Scale", "Parent inverse", "Keys", "Drivers")

	for _, o := range s.Objects() {
		name := o.Name()
		if s.Active() == o {
			name += " *"
		} else if o.Selected {
			name += " +"
		}
		parent := ""
		if p := o.ParentObject(); p != nil {
			parent = p.Name()
		}
		pinv := "identity"
		if !o.ParentInverse.ApproxEqual(mgl64.Ident4()) {
			pinv = "set"
		}
		keys := 0
		if a := o.Animation(); a != nil {
			keys = len(a.Frames())
		}
		rot, _ := o.Property(o.RotationMode().DataPath())
		t.Row(name, parent, o.RotationMode().String(),
			formatVec(o.Location[:]), formatVec(rot), formatVec(o.Scale[:]),
			pinv, fmt.Sprint(keys), fmt.Sprint(len(o.DriverList())))
	}
	return t.String()
}
