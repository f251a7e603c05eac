// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/llm"
	"github.com/pdiddy/refresolve/internal/parser"
	"github.com/pdiddy/refresolve/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate <url>",
	Short: "Fetch a URL and check it against a reference",
	Long: `Validate fetches one URL, detects access barriers (paywall, login,
preview-only, soft 404), checks whether the content matches the reference
and prints the resulting validation score and reason.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("ref", "", `reference line, e.g. "[4] Kahneman, D. (2011). Thinking, Fast and Slow."`)
	validateCmd.Flags().Bool("llm", false, "use the language model for content matching")
	validateCmd.Flags().Bool("json", false, "output the result as JSON")
	validateCmd.MarkFlagRequired("ref")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	line, _ := cmd.Flags().GetString("ref")
	useLLM, _ := cmd.Flags().GetBool("llm")
	asJSON, _ := cmd.Flags().GetBool("json")

	ref, err := parser.Parse(line)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var client *llm.Client
	if useLLM {
		client = llm.New(aiConfig())
		if client.APIKey == "" {
			return llm.ErrNoAPIKey
		}
	}
	v, cleanup, err := newValidator(ctx, client)
	if err != nil {
		return err
	}
	defer cleanup()

	res := v.Validate(ctx, args[0], ref)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printValidation(res)
	return nil
}

func printValidation(res types.ValidationResult) {
	fmt.Printf("URL:        %s\n", res.URL)
	if res.FinalURL != "" && res.FinalURL != res.URL {
		fmt.Printf("Final URL:  %s\n", res.FinalURL)
	}
	fmt.Printf("Status:     %d\n", res.StatusCode)
	fmt.Printf("Accessible: %v\n", res.Accessible)
	fmt.Printf("Score:      %d\n", res.Score)
	fmt.Printf("Reason:     %s\n", res.Reason)
	if len(res.Barriers) > 0 {
		fmt.Printf("Barriers:   %v\n", res.Barriers)
	}
	fmt.Printf("Match:      %v (confidence %.2f)\n", res.ContentMatch.Matched, res.ContentMatch.Confidence)
}
