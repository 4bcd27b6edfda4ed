package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/model"
)

func (a *app) userCmd() *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "Profile operations"}

	// show
	userCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				u, err := c.Catalog.User(cmd.Context())
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("no profile set; run 'discoveryctl user set'")
				}
				return a.printJSON(u)
			})
		},
	})

	// set
	var u model.User
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				out, err := c.Catalog.SaveUser(cmd.Context(), &u)
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
	setCmd.Flags().StringVarP(&u.Name, "name", "n", "", "Display name (required)")
	setCmd.Flags().StringVar(&u.City, "city", "", "City")
	setCmd.Flags().StringVar(&u.Country, "country", "", "Country")
	setCmd.Flags().StringSliceVarP(&u.PreferredCuisines, "cuisine", "c", nil, "Preferred cuisine tag, repeatable")
	setCmd.Flags().IntVarP(&u.PriceTier, "price", "p", 0, "Preferred price tier 0-5")
	setCmd.Flags().Float64Var(&u.Home.Lat, "lat", 0, "Home latitude")
	setCmd.Flags().Float64Var(&u.Home.Lng, "lng", 0, "Home longitude")
	_ = setCmd.MarkFlagRequired("name")
	userCmd.AddCommand(setCmd)

	// cuisine toggle
	userCmd.AddCommand(&cobra.Command{
		Use:   "cuisine TAG",
		Short: "Toggle a preferred cuisine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				out, err := c.Users.ToggleCuisine(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	})
	return userCmd
}
