package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/weft-dev/weft/pkg/api/types/workflows"
	"github.com/weft-dev/weft/pkg/build"
	"github.com/weft-dev/weft/pkg/utils/filewatch"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("weft", version)
		},
	}
}

// Submit a workflow file
func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <workflow file>",
		Short: "Build a workflow file and submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, profile, err := resolveClient(cmd)
			if err != nil {
				return err
			}

			w, err := loadWorkflowFile(
				args[0],
				build.WithClient(client),
				build.InNamespace(profile.Namespace),
			)
			if err != nil {
				return err
			}

			created, err := w.Create(cmd.Context())
			if err != nil {
				return err
			}

			log.Info().
				Str("workflow", created.Metadata.Name).
				Str("namespace", created.Metadata.Namespace).
				Msg("submitted")
			return nil
		},
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workflow name>",
		Short: "Delete a submitted workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, profile, err := resolveClient(cmd)
			if err != nil {
				return err
			}

			result, err := client.DeleteWorkflow(cmd.Context(), profile.Namespace, args[0])
			if err != nil {
				return err
			}

			log.Info().
				Str("workflow", args[0]).
				Str("status", result.Status).
				Msg("deleted")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <workflow name>",
		Short: "Report the phase of a submitted workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, profile, err := resolveClient(cmd)
			if err != nil {
				return err
			}

			phase, err := client.WorkflowStatus(cmd.Context(), profile.Namespace, args[0])
			if err != nil {
				return err
			}
			if phase == workflows.WorkflowUnknown {
				fmt.Println("Unknown")
				return nil
			}
			fmt.Println(string(phase))
			return nil
		},
	}
}

// Lint a workflow file against the server
func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <workflow file>",
		Short: "Have the server validate a workflow file without creating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, profile, err := resolveClient(cmd)
			if err != nil {
				return err
			}

			lint := func() error {
				w, err := loadWorkflowFile(args[0], build.InNamespace(profile.Namespace))
				if err != nil {
					return err
				}
				built, err := w.Build()
				if err != nil {
					return err
				}
				if _, err := client.LintWorkflow(cmd.Context(), profile.Namespace, built); err != nil {
					return err
				}
				log.Info().Str("file", args[0]).Msg("lint ok")
				return nil
			}

			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				return lint()
			}

			for {
				if err := lint(); err != nil {
					// in watch mode, report and wait for the next edit
					log.Error().Err(err).Msg("lint failed")
				}

				wctx, cancel, err := filewatch.UntilModifyContext(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				<-wctx.Done()
				cancel()

				if cmd.Context().Err() != nil {
					return nil
				}
				log.Debug().Str("file", args[0]).Msg("changed; linting again")
			}
		},
	}
	cmd.Flags().Bool("watch", false, "re-lint whenever the file changes")
	return cmd
}

// Render a workflow file without submitting it
func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <workflow file>",
		Short: "Build a workflow file and print the manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkflowFile(args[0])
			if err != nil {
				return err
			}
			built, err := w.Build()
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "json":
				buf, err := json.MarshalIndent(built, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(buf))
			case "yaml":
				buf, err := manifestToYAML(built)
				if err != nil {
					return err
				}
				fmt.Print(string(buf))
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "yaml", "output format: yaml or json")
	return cmd
}

// manifestToYAML renders a manifest with its json field names, going
// through json so yaml tags are not needed on the schema types.
func manifestToYAML(manifest workflows.Workflow) ([]byte, error) {
	buf, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
