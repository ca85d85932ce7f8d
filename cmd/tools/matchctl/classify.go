package main

import (
	"fmt"
	"io"
	"strings"

	"matchpet-workers/internal/match/classifier"

	"github.com/spf13/cobra"
)

var keywordsPath string

var classifyCmd = &cobra.Command{
	Use:   "classify <special mark>",
	Short: "Classify a shelter note into a risk tier",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cls, err := loadClassifier(keywordsPath)
		if err != nil {
			return err
		}
		res := cls.Classify(strings.Join(args, " "))
		return printResult(cmd.OutOrStdout(), res, func(w io.Writer) {
			fmt.Fprintf(w, "tier:        %s\n", res.Tier)
			fmt.Fprintf(w, "cleaned:     %s\n", res.CleanedText)
			fmt.Fprintf(w, "hits:        block=%d hold_medical=%d limit_behavior=%d\n",
				res.Hits.Block, res.Hits.HoldMedical, res.Hits.LimitBehavior)
			fmt.Fprintf(w, "aggressive:  %t\n", res.Aggressive)
			fmt.Fprintf(w, "medication:  %t\n", res.MedicationRequired)
			fmt.Fprintf(w, "beginner:    %t\n", res.BeginnerFriendly)
			fmt.Fprintf(w, "activity:    %t\n", res.HighActivity)
		})
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&keywordsPath, "keywords", "k", "", "keyword YAML file (default is the built-in list)")
}

func loadClassifier(path string) (*classifier.Classifier, error) {
	if path == "" {
		return classifier.Default(), nil
	}
	kw, err := classifier.LoadKeywords(path)
	if err != nil {
		return nil, err
	}
	return classifier.New(kw)
}
