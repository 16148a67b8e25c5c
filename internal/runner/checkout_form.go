package runner

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var checkoutDecisions = []string{"COMPLETE", "CONTINUE", "SWITCH", "BREAK"}

const (
	fieldKeep = iota
	fieldProblem
	fieldTry
	fieldRemaining
	fieldCount
)

// checkoutForm collects the decision, the KPT reflection and an optional
// remaining-hours estimate.
type checkoutForm struct {
	decisionIdx int
	inputs      [fieldCount]textinput.Model
	focus       int
	errText     string
}

func newCheckoutForm() *checkoutForm {
	f := &checkoutForm{}
	labels := [fieldCount]string{"keep", "problem", "try", "remaining hours"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = labels[i]
		ti.CharLimit = 100
		f.inputs[i] = ti
	}
	f.inputs[fieldRemaining].CharLimit = 6
	f.inputs[fieldKeep].Focus()
	return f
}

func (f *checkoutForm) decision() string {
	return checkoutDecisions[f.decisionIdx]
}

// submit validates and converts the form into a checkout input. An empty
// remaining-hours field means no re-estimate.
func (f *checkoutForm) submit() (CheckoutInput, bool) {
	in := CheckoutInput{
		Decision:    f.decision(),
		KeepNote:    strings.TrimSpace(f.inputs[fieldKeep].Value()),
		ProblemNote: strings.TrimSpace(f.inputs[fieldProblem].Value()),
		TryNote:     strings.TrimSpace(f.inputs[fieldTry].Value()),
	}
	if raw := strings.TrimSpace(f.inputs[fieldRemaining].Value()); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours < 0 {
			f.errText = "remaining hours must be a non-negative number"
			return CheckoutInput{}, false
		}
		in.RemainingHours = &hours
	}
	if in.Decision == "CONTINUE" && in.KeepNote == "" && in.ProblemNote == "" && in.TryNote == "" {
		f.errText = "CONTINUE needs at least one reflection note"
		return CheckoutInput{}, false
	}
	f.errText = ""
	return in, true
}

func (f *checkoutForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left":
		f.decisionIdx = (f.decisionIdx + len(checkoutDecisions) - 1) % len(checkoutDecisions)
		return nil
	case "right":
		f.decisionIdx = (f.decisionIdx + 1) % len(checkoutDecisions)
		return nil
	case "tab", "down":
		f.setFocus((f.focus + 1) % fieldCount)
		return nil
	case "shift+tab", "up":
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *checkoutForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *checkoutForm) view() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Checkout") + "\n\n")

	b.WriteString("decision: ")
	for i, d := range checkoutDecisions {
		if i == f.decisionIdx {
			b.WriteString(styleGreen.Render("[" + d + "]"))
		} else {
			b.WriteString(styleDim.Render(" " + d + " "))
		}
	}
	b.WriteString(styleDim.Render("  (left/right to change)") + "\n\n")

	labels := [fieldCount]string{"Keep      ", "Problem   ", "Try       ", "Remaining "}
	for i, in := range f.inputs {
		marker := "  "
		if i == f.focus {
			marker = styleGreen.Render("> ")
		}
		b.WriteString(marker + styleDim.Render(labels[i]) + in.View() + "\n")
	}

	if f.errText != "" {
		b.WriteString("\n" + styleRed.Render(f.errText) + "\n")
	}
	b.WriteString("\n" + styleDim.Render("enter: check out   esc: back"))
	return b.String()
}
