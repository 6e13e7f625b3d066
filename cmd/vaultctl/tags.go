package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/imagevault/imagevault-server/internal/service"
)

func newTagsCmd(flags *storeFlags) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect and extend the tag vocabulary",
	}

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, err := flags.container()
			if err != nil {
				return err
			}
			defer shutdown(cmd, injector)

			tagService, err := do.Invoke[*service.TagService](injector)
			if err != nil {
				return err
			}
			tags, err := tagService.ListTags(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, tag := range tags {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tag.ID, tag.Name, tag.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	})

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: "Add tags to the vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := flags.container()
			if err != nil {
				return err
			}
			defer shutdown(cmd, injector)

			tagService, err := do.Invoke[*service.TagService](injector)
			if err != nil {
				return err
			}
			for _, name := range args {
				tag, err := tagService.CreateTag(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("add %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tag.ID, tag.Name)
			}
			return nil
		},
	})

	return tagsCmd
}
