package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := execute(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "dayplan:", err)
		os.Exit(1)
	}
}

func execute(args []string) error {
	app := cli.App{
		Name:      "dayplan",
		Usage:     "lay out a day of micro-goals with breaks",
		UsageText: "dayplan <command> [arguments...]",
		Commands: []cli.Command{
			{
				Name:      "plan",
				Aliases:   []string{"p"},
				Usage:     "plan goals read from a file, arguments or stdin",
				ArgsUsage: "[goal lines...]",
				Action:    planAction,
				Flags:     planFlags,
				Description: "Each non-empty line is one goal. A trailing duration such as\n" +
					"   \"(15 min)\" or \"- 20m\" sets its estimate, otherwise 30 minutes is used.",
			},
		},
	}
	return app.Run(args)
}
