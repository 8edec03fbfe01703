package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/iota-uz/staffledger/modules"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/commands"
)

func main() {
	load := func(app application.Application) error {
		return modules.Load(app, modules.BuiltInModules...)
	}

	root := &cobra.Command{
		Use:   "staffctl",
		Short: "Operational CLI for the staff ledger",
	}
	root.AddCommand(
		commands.NewMigrateCommand(load),
		commands.NewLeaveCommand(load),
		commands.NewQualificationCommand(load),
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
