package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/unistroke/internal/app"
	"github.com/ayusman/unistroke/internal/gesture"
)

func newRecognizeCmd(e *env) *cobra.Command {
	var runActions bool

	cmd := &cobra.Command{
		Use:   "recognize <file>",
		Short: "Match every stroke in a gesture file against the stored templates",
		Long: "Reads strokes in the import format and prints the closest template for\n" +
			"each. The name on each line is only used as a label. Use - for stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			strokes, err := gesture.ReadGestures(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STROKE\tMATCH\tDISTANCE\tSCORE")
			for _, s := range strokes {
				var (
					match   gesture.Match
					matched = true
				)
				if runActions {
					result, err := a.Recognize(cmd.Context(), s.Points())
					switch {
					case errors.Is(err, app.ErrNoMatch):
						matched = false
					case err != nil:
						return fmt.Errorf("stroke %s: %w", s.Name(), err)
					}
					match = result.Match
				} else {
					match, err = a.Recognizer().Recognize(cmd.Context(), s.Points())
					if err != nil {
						return fmt.Errorf("stroke %s: %w", s.Name(), err)
					}
					if limit := e.cfg.MaxDistance; limit > 0 && match.Distance > limit {
						matched = false
					}
				}

				name := match.Name
				if !matched {
					name = "(" + name + ")"
				}
				fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\n", s.Name(), name, match.Distance, match.Score)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&runActions, "run-actions", false, "run the action bound to each matched template")
	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish]",
		Short:                 "Get completions for your favorite shell",
		ValidArgs:             []string{"bash", "zsh", "fish"},
		DisableFlagsInUseLine: true,
		// Completion needs no config or store.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			root := cmd.Root()
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
