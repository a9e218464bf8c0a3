package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/unistroke/internal/gesture"
	"github.com/ayusman/unistroke/internal/store"
)

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			templates, err := a.Store().Templates().List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(templates) == 0 {
				fmt.Fprintln(out, "No templates stored")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPOINTS\tSAMPLES\tACTION\tID")
			for _, t := range templates {
				action := "-"
				binding, err := a.Store().Actions().GetByTemplateID(t.ID)
				if err != nil {
					return err
				}
				if binding != nil {
					action = binding.PluginName + "/" + binding.ActionName
					if !binding.Enabled {
						action += " (disabled)"
					}
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", t.Name, t.NumResampled, t.Samples, action, t.ID)
			}
			return tw.Flush()
		},
	}
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Normalise and store every stroke in a gesture file",
		Long: "Reads one stroke per line in the form \"name x;y;x;y;...\" and stores each\n" +
			"as a template, replacing the template of the same name. Use - for stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			gestures, err := gesture.ReadGestures(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			var created, replaced int
			for _, g := range gestures {
				_, isNew, err := a.ImportTemplate(g)
				if err != nil {
					return err
				}
				if isNew {
					created++
				} else {
					replaced++
				}
			}
			if err := a.LoadTemplates(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d template(s): %d new, %d replaced\n", len(gestures), created, replaced)
			return nil
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write stored templates to a gesture file",
		Long: "Writes one template per line in the import format. With --raw the\n" +
			"first recorded sample of each template is written instead of the\n" +
			"normalised stroke. Use - for stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			gestures, err := exportGestures(a.Store(), raw)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if err := gesture.WriteGestures(out, gestures); err != nil {
				return err
			}
			if args[0] != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d template(s) to %s\n", len(gestures), args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "export the first recorded sample instead of the normalised stroke")
	return cmd
}

// exportGestures returns the stored templates in insertion order.
func exportGestures(s *store.Store, raw bool) ([]*gesture.Gesture, error) {
	templates, err := s.Templates().List()
	if err != nil {
		return nil, err
	}

	gestures := make([]*gesture.Gesture, 0, len(templates))
	for _, t := range templates {
		if raw {
			samples, err := s.Samples().GetByTemplateID(t.ID)
			if err != nil {
				return nil, err
			}
			if len(samples) > 0 {
				g, err := samples[0].Decode()
				if err != nil {
					return nil, err
				}
				g.SetName(t.Name)
				gestures = append(gestures, g)
				continue
			}
		}

		g, err := t.Decode()
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}
	return gestures, nil
}

func newRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a template by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			t, err := a.Store().Templates().GetByName(args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("template not found: %s", args[0])
			}
			if err != nil {
				return err
			}
			if err := a.RemoveTemplate(t.ID); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Removed template:", args[0])
			return nil
		},
	}
}

func newRetrainCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Renormalise every template from its samples with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeStore, err := e.openApp()
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := a.Retrain()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retrained %d template(s)\n", n)
			return nil
		},
	}
}
