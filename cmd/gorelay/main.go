// Command gorelay seeds a demo social database and pages through its
// connections from the command line.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("gorelay failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gorelay",
		Short:         "Cursor pagination over social connections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindConfigFlags(root)

	root.AddCommand(
		newSeedCommand(),
		newManagersCommand(),
		newTopicsCommand(),
		newCommentsCommand(),
	)

	return root
}
