package main

import (
	"fmt"
	"io"

	"matchpet-workers/internal/match/score"
	"matchpet-workers/internal/models"

	"github.com/spf13/cobra"
)

var (
	seniorFile  string
	animalFile  string
	managerFile string
)

type scoreResult struct {
	PetScore     float64  `json:"petScore"`
	RequiredTags []string `json:"requiredTags"`
	ManagerScore *float64 `json:"managerScore,omitempty"`
	PairScore    *float64 `json:"pairScore,omitempty"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a senior against an animal and optionally a manager",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			senior models.Senior
			animal models.Animal
		)
		if err := readJSONFile(seniorFile, &senior); err != nil {
			return err
		}
		if err := readJSONFile(animalFile, &animal); err != nil {
			return err
		}

		fit := score.FitOf(&senior)
		required := score.RequiredTagsFor(&animal)
		res := scoreResult{
			PetScore:     score.Round2(score.PetScore(fit, &animal)),
			RequiredTags: required.Sorted(),
		}

		if managerFile != "" {
			var manager models.Manager
			if err := readJSONFile(managerFile, &manager); err != nil {
				return err
			}
			ms := score.Round2(score.ManagerScore(fit.Mobility, &manager, required))
			ps := score.Round2(score.PairScore(res.PetScore, ms))
			res.ManagerScore = &ms
			res.PairScore = &ps
		}

		return printResult(cmd.OutOrStdout(), res, func(w io.Writer) {
			fmt.Fprintf(w, "pet score:     %.2f\n", res.PetScore)
			fmt.Fprintf(w, "required tags: %v\n", res.RequiredTags)
			if res.ManagerScore != nil {
				fmt.Fprintf(w, "manager score: %.2f\n", *res.ManagerScore)
				fmt.Fprintf(w, "pair score:    %.2f\n", *res.PairScore)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVarP(&seniorFile, "senior", "s", "", "senior JSON file")
	scoreCmd.Flags().StringVarP(&animalFile, "animal", "a", "", "animal JSON file")
	scoreCmd.Flags().StringVarP(&managerFile, "manager", "m", "", "manager JSON file")
	_ = scoreCmd.MarkFlagRequired("senior")
	_ = scoreCmd.MarkFlagRequired("animal")
}
