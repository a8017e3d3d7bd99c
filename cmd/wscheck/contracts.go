package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"wscheck/internal/contract"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts [event]",
	Short: "Show the signature contract of every event kind",
	Long: `Show what each handler kind must look like: qualifier, accepted parameter
lists, accepted returns and the messages reported when it does not. An event
name (upgrade, onText) or any remote alias (onTextMessage) selects one kind.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContracts,
}

func runContracts(cmd *cobra.Command, args []string) error {
	list := contract.All()
	if len(args) == 1 {
		k, ok := contract.ParseEvent(args[0])
		if !ok {
			return fmt.Errorf("unknown event %q", args[0])
		}
		c, _ := contract.For(k)
		list = []contract.Contract{c}
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	renderContracts(cmd.OutOrStdout(), list, newContractStyles(color))
	return nil
}

type contractStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	name  lipgloss.Style
}

func newContractStyles(color bool) contractStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return contractStyles{title: plain, label: plain.Width(11), value: plain, name: plain}
	}
	return contractStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		label: lipgloss.NewStyle().Width(11).Foreground(lipgloss.Color("8")),
		value: lipgloss.NewStyle(),
		name:  lipgloss.NewStyle().Faint(true),
	}
}

func renderContracts(w io.Writer, list []contract.Contract, st contractStyles) {
	for i, c := range list {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.title.Render(c.Kind.String()))
		row := func(label string, values ...string) {
			for j, v := range values {
				l := ""
				if j == 0 {
					l = label
				}
				fmt.Fprintf(w, "  %s%s\n", st.label.Render(l), st.value.Render(v))
			}
		}
		qual := c.Qualifier.String()
		if c.Method != "" {
			qual += " " + c.Method
		}
		row("qualifier", qual)
		if aliases := contract.Aliases(c.Kind); len(aliases) > 0 {
			row("names", strings.Join(aliases, ", "))
		}
		row("params", c.Params.Describe()...)
		row("returns", c.Return.Describe())
		var msgs []string
		for _, t := range contract.Templates(c.Kind) {
			msgs = append(msgs, t.Text+" "+st.name.Render("("+t.Name+")"))
		}
		row("messages", msgs...)
	}
}
