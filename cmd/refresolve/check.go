// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <records-file>",
	Short: "Verify record invariants and instance sets",
	Long: `Check verifies every record (finalized references have a Primary URL,
Secondary differs from Primary) and every instance set (instances share
the parent's Primary and no two records in a set share a Secondary URL).
It exits non-zero when a problem is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	file, err := loadRecords(args[0])
	if err != nil {
		return err
	}
	problems := checkRecords(file.References)
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	fmt.Printf("%d records OK\n", len(file.References))
	return nil
}

// checkRecords returns one line per invariant violation.
func checkRecords(refs []*types.Reference) []string {
	var problems []string
	seen := make(map[string]bool, len(refs))
	parents := make(map[string]*types.Reference)
	for _, r := range refs {
		if seen[r.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", r.ID))
		}
		seen[r.ID] = true
		if err := r.Check(); err != nil {
			problems = append(problems, err.Error())
		}
		if !r.IsInstance() {
			parents[r.ID] = r
		}
	}

	groups := selection.GroupInstances(refs)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		parent, ok := parents[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: instances without a parent record", id))
			continue
		}
		if err := selection.CheckInstanceSet(parent, groups[id]); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}
