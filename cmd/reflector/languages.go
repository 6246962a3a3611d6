package main

import (
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the loaded language profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return outputError("languages", err)
		}
		defer e.Close()

		out := []CLILanguage{}
		for _, l := range e.Languages() {
			out = append(out, CLILanguage{
				Name:        l.Name,
				Description: l.Description,
				Extensions:  l.Extensions,
				Roles:       l.Roles,
				Builtins:    l.Builtins,
			})
		}
		return outputResult(CLIResult{Command: "languages", Results: out})
	},
}
