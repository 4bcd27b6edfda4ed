package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/searchcache"
)

// coordFlags holds --lat/--lng; unset means the user's home or the default city.
type coordFlags struct {
	lat, lng float64
	radius   float64
}

func (f *coordFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude of the search centre")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "Longitude of the search centre")
	cmd.Flags().Float64VarP(&f.radius, "radius", "r", 0, "Search radius in metres (0 uses the default)")
}

func (f *coordFlags) coordinate(cmd *cobra.Command) (model.Coordinate, bool, error) {
	hasLat, hasLng := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	if hasLat != hasLng {
		return model.Coordinate{}, false, fmt.Errorf("--lat and --lng go together")
	}
	if !hasLat {
		return model.Coordinate{}, false, nil
	}
	c := model.Coordinate{Lat: f.lat, Lng: f.lng}
	return c, true, c.Validate()
}

// center resolves the flags, falling back to the user's home and then the default city.
func (f *coordFlags) center(cmd *cobra.Command, c *core.Core) (model.Coordinate, error) {
	coord, ok, err := f.coordinate(cmd)
	if err != nil || ok {
		return coord, err
	}
	u, err := c.Catalog.User(cmd.Context())
	if err != nil {
		return model.Coordinate{}, err
	}
	if u != nil && !u.Home.IsZero() {
		return u.Home, nil
	}
	return model.Melbourne, nil
}

func (a *app) resolveCmd() *cobra.Command {
	var cf coordFlags
	cmd := &cobra.Command{
		Use:   "resolve CATEGORY",
		Short: "List a cached category (trending, budget, nearby)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, ok, err := cf.coordinate(cmd)
			if err != nil {
				return err
			}
			cat := searchcache.Category(strings.ToLower(args[0]))
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				var out []*model.Restaurant
				if ok {
					out, err = c.Cache.Resolve(cmd.Context(), cat, coord, cf.radius)
				} else {
					out, err = c.Cache.ResolveDefault(cmd.Context(), cat)
				}
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
	cf.bind(cmd)
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var cf coordFlags
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Free-text restaurant search (not cached)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cf.coordinate(cmd); err != nil {
				return err
			}
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				coord, err := cf.center(cmd, c)
				if err != nil {
					return err
				}
				out, err := c.Places.Search(cmd.Context(), strings.Join(args, " "), coord, cf.radius)
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
	cf.bind(cmd)
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	var cf coordFlags
	cmd := &cobra.Command{
		Use:   "suggest TEXT",
		Short: "Restaurant and suburb suggestions for partial input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cf.coordinate(cmd); err != nil {
				return err
			}
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				coord, err := cf.center(cmd, c)
				if err != nil {
					return err
				}
				out, err := c.Places.Suggest(cmd.Context(), strings.Join(args, " "), coord)
				if err != nil {
					return err
				}
				for _, s := range out {
					fmt.Fprintf(a.out, "%s\t%s\t%s\n", s.PlaceID, s.MainText, s.SecondaryText)
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&cf.lat, "lat", 0, "Latitude to bias suggestions towards")
	cmd.Flags().Float64Var(&cf.lng, "lng", 0, "Longitude to bias suggestions towards")
	return cmd
}

func (a *app) areaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "area PLACE_ID",
		Short: "Nearby restaurants around a suggested place, e.g. a suburb (not cached)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				out, err := c.Places.SearchArea(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
}

func (a *app) favouritesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favourites",
		Short: "List favourite restaurants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				out, err := c.Catalog.Favourites(cmd.Context())
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
}

func (a *app) favouriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favourite RESTAURANT_ID",
		Short: "Toggle a restaurant's favourite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				out, err := c.Catalog.ToggleFavourite(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
}

func (a *app) reviewsCmd() *cobra.Command {
	var doImport bool
	cmd := &cobra.Command{
		Use:   "reviews RESTAURANT_ID",
		Short: "List a restaurant's reviews, optionally importing provider reviews first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(cmd.Context(), func(c *core.Core) error {
				var (
					out []*model.Review
					err error
				)
				if doImport {
					out, err = c.Places.ImportReviews(cmd.Context(), args[0])
				} else {
					out, err = c.Catalog.ReviewsFor(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return a.printJSON(out)
			})
		},
	}
	cmd.Flags().BoolVar(&doImport, "import", false, "Fetch provider reviews before listing")
	return cmd
}
