package main

import (
	"fmt"
	"io"

	"matchpet-workers/internal/match/address"

	"github.com/spf13/cobra"
)

var metro string

type districtResult struct {
	Address      string `json:"address"`
	CityDistrict string `json:"cityDistrict"`
	InMetro      bool   `json:"inMetro"`
}

var districtCmd = &cobra.Command{
	Use:   "district <address>...",
	Short: "Resolve addresses to their metro district key",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := address.NewParser(metro)
		out := make([]districtResult, 0, len(args))
		for _, a := range args {
			out = append(out, districtResult{
				Address:      a,
				CityDistrict: p.CityDistrict(a),
				InMetro:      p.IsInMetro(a),
			})
		}
		return printResult(cmd.OutOrStdout(), out, func(w io.Writer) {
			for _, r := range out {
				d := r.CityDistrict
				if d == "" {
					d = "-"
				}
				fmt.Fprintf(w, "%s\t%s\n", d, r.Address)
			}
			if len(args) == 2 {
				fmt.Fprintf(w, "same district: %t\n", p.SameDistrict(args[0], args[1]))
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(districtCmd)
	districtCmd.Flags().StringVar(&metro, "metro", address.DefaultMetro, "service area metro name")
}
