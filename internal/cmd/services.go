package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the services known to the catalog",
	Args:  cobra.NoArgs,
	RunE:  runServices,
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}

func runServices(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.close(cmd.Context())

	for _, svc := range eng.catalog.Services() {
		line := svc.Name
		if svc.AltName != "" {
			line += " (" + svc.AltName + ")"
		}
		if svc.Description != "" {
			line += "  " + svc.Description
		}
		fmt.Println(line)
	}
	return nil
}
