package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/opcmd"
	"github.com/aretw0/opcmd/internal/logging"
	"github.com/aretw0/opcmd/internal/presentation/tui"
	"github.com/aretw0/opcmd/pkg/adapters/diagram"
	"github.com/aretw0/opcmd/pkg/server"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl [file]",
	Short: "Run an interactive op-string shell",
	Long: `Starts an interactive shell against the diagram domain. With a file
argument the session opens that diagram first.

Plain lines are executed as ops. Lines starting with '.' are session
commands (.new, .open, .save, .checkpoint, .undo, .redo), lines starting
with '?' are queries, and 'help' shows the reference card.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logger := logging.New(logging.ParseLevel(level))

		srv := server.New[*diagram.Diagram, *diagram.Event](
			"diagram", opcmd.Version, diagram.Adapter{}, diagram.Verbs(),
			server.WithSections[*diagram.Diagram, *diagram.Event](diagram.Sections()),
			server.WithLogger[*diagram.Diagram, *diagram.Event](logger),
		)

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			tui.PrintBanner()
			fmt.Println("Type 'help' for the reference card, 'exit' to leave.")
		}

		if len(args) > 0 {
			fmt.Println(srv.ExecuteSession("open " + args[0]))
		}

		render := tui.NewRenderer()
		scanner := bufio.NewScanner(os.Stdin)
		for {
			if interactive {
				fmt.Print("> ")
			}
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())

			switch {
			case line == "":
				continue
			case line == "exit" || line == "quit":
				return
			case line == "help":
				card := srv.HelpCard()
				if interactive {
					if out, err := render("```\n" + card + "\n```"); err == nil {
						card = out
					}
				}
				fmt.Println(card)
			case strings.HasPrefix(line, "."):
				fmt.Println(srv.ExecuteSession(strings.TrimPrefix(line, ".")))
			case strings.HasPrefix(line, "?"):
				fmt.Println(srv.ExecuteQuery(strings.TrimSpace(strings.TrimPrefix(line, "?"))))
			default:
				fmt.Println(srv.ExecuteOps([]string{line}))
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
