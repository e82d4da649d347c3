package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-press/inkwell/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell version %s\n", version.Get())
	},
}
