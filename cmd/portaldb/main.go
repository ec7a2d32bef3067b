// Command portaldb runs maintenance tasks against the defense portal
// database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := &app{}
	root := &cobra.Command{
		Use:           "portaldb",
		Short:         "Maintenance tasks for the defense portal database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		app.pingCommand(),
		app.ensureSchemaCommand(),
		app.refreshViewsCommand(),
		app.rankingsCommand(),
		entitiesCommand(),
	)
	root.SetArgs(args)
	defer app.close()
	return root.ExecuteContext(context.Background())
}
