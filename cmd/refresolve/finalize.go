// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/recordstore"
	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize <records-file> <id>",
	Short: "Mark a reference as finalized after confirmation",
	Long: `Finalize re-validates the reference's Primary URL and, when its score is
above the finalize threshold, asks for confirmation before setting the
FINALIZED flag. Instance records can be finalized the same way. Nothing
else in refresolve sets FINALIZED.`,
	Args: cobra.ExactArgs(2),
	RunE: runFinalize,
}

func init() {
	finalizeCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(finalizeCmd)
}

func runFinalize(cmd *cobra.Command, args []string) error {
	path, id := args[0], args[1]
	yes, _ := cmd.Flags().GetBool("yes")

	file, err := loadRecords(path)
	if err != nil {
		return err
	}
	ref := file.Find(id)
	if ref == nil {
		return fmt.Errorf("reference %s not found in %s", id, path)
	}
	if ref.Finalized() {
		fmt.Printf("[%s] is already finalized.\n", id)
		return nil
	}
	if ref.URLs.Primary == "" {
		return fmt.Errorf("%s: no primary URL: %w", id, types.ErrNotFinalizable)
	}

	ctx := context.Background()
	v, cleanup, err := newValidator(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	res := v.Validate(ctx, ref.URLs.Primary, ref)
	fmt.Printf("Primary %s: score %d (%s)\n", ref.URLs.Primary, res.Score, res.Reason)

	var confirm selection.Confirmer = selection.ConfirmFunc(func(*types.Reference) (bool, error) { return true, nil })
	if !yes {
		confirm = promptConfirmer(os.Stdin, os.Stdout)
	}
	updated, err := selection.New(selectionConfig()).Finalize(ref, res.Score, confirm)
	if err != nil {
		return err
	}

	for i, r := range file.References {
		if r.ID == id {
			file.References[i] = updated
		}
	}
	if err := recordstore.Save(path, file.References); err != nil {
		return err
	}
	fmt.Printf("[%s] finalized.\n", id)
	return nil
}

// promptConfirmer asks on out and reads a y/N answer from in.
func promptConfirmer(in io.Reader, out io.Writer) selection.Confirmer {
	br := bufio.NewReader(in)
	return selection.ConfirmFunc(func(ref *types.Reference) (bool, error) {
		fmt.Fprintf(out, "\n%s\n", recordstore.FormatBibliography(ref))
		fmt.Fprintf(out, "  Primary:   %s\n", ref.URLs.Primary)
		if ref.URLs.Secondary != "" {
			fmt.Fprintf(out, "  Secondary: %s\n", ref.URLs.Secondary)
		}
		fmt.Fprintf(out, "Finalize [%s]? [y/N] ", ref.ID)
		answer, err := br.ReadString('\n')
		if err != nil && answer == "" {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}
