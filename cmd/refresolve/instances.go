// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/recordstore"
	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

var instancesCmd = &cobra.Command{
	Use:   "instances <records-file> <id>",
	Short: "Add instance records for additional occurrences of a reference",
	Long: `Instances creates --count new instance records ("42.1", "42.2", ...) for
a parent reference cited more than once in the manuscript. Each instance
shares the parent's Primary URL and starts unfinalized and flagged for
manual review; run "refresolve resolve --ids <id>" to give each one its own
Secondary URL and relevance text.`,
	Args: cobra.ExactArgs(2),
	RunE: runInstances,
}

func init() {
	instancesCmd.Flags().Int("count", 1, "number of instance records to add")

	rootCmd.AddCommand(instancesCmd)
}

func runInstances(cmd *cobra.Command, args []string) error {
	path, id := args[0], args[1]
	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	file, err := loadRecords(path)
	if err != nil {
		return err
	}
	parent := file.Find(types.BaseRID(id))
	if parent == nil {
		return fmt.Errorf("reference %s not found in %s", types.BaseRID(id), path)
	}

	created := selection.ExpandInstances(parent, count, file.References)
	refs := insertAfterGroup(file.References, parent.ID, created)
	if err := recordstore.Save(path, refs); err != nil {
		return err
	}
	for _, inst := range created {
		fmt.Printf("Created [%s]\n", inst.ID)
	}
	return nil
}

// insertAfterGroup places created right after the parent and its existing
// instances, keeping the rest of the file in order.
func insertAfterGroup(refs []*types.Reference, parentID string, created []*types.Reference) []*types.Reference {
	at := len(refs)
	for i, r := range refs {
		if r.ID == parentID || (r.IsInstance() && r.BaseID() == parentID) {
			at = i + 1
		}
	}
	out := make([]*types.Reference, 0, len(refs)+len(created))
	out = append(out, refs[:at]...)
	out = append(out, created...)
	return append(out, refs[at:]...)
}
