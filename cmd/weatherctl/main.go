package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-favorites/internal/apiclient"
	"github.com/i474232898/weather-favorites/internal/weather"
)

const usage = `usage: weatherctl [-api URL] [-cache FILE] <command> [args]

commands:
  forecast <location> [date] [-source db|external|auto] [-summary]
  locations
  location <id>
  add-location -name NAME [-lat N -lon N -alt N]
  quick-add <name>
  favorites
  favorite <locationId>
  favorite-name <name> [date]
`

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", os.Getenv("WEATHER_API_URL"), "API base URL")
	cachePath := flag.String("cache", apiclient.DefaultCachePath(), "favorites cache file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := apiclient.New(*apiURL, apiclient.WithFavoritesCache(apiclient.NewFavoritesCache(*cachePath)))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, client, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			os.Exit(1)
		}
		os.Exit(3)
	}
}

func run(ctx context.Context, c *apiclient.Client, cmd string, args []string) error {
	switch cmd {
	case "forecast":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", "", "db, external or auto")
		summary := fs.Bool("summary", false, "print a summary instead of hourly entries")
		location, rest := splitPositional(args)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if location == "" {
			return errors.New("forecast needs a location")
		}
		date := today()
		if fs.NArg() > 0 {
			date = fs.Arg(0)
		}
		var mode weather.SourceMode
		if *source != "" {
			m, err := weather.ParseSourceMode(*source)
			if err != nil {
				return err
			}
			mode = m
		}
		forecast, err := c.GetForecast(ctx, location, date, mode)
		if err != nil {
			return err
		}
		if *summary {
			return printJSON(map[string]any{
				"date":     forecast.Date,
				"location": forecast.Location,
				"summary":  apiclient.Summarize(forecast.Hourly),
			})
		}
		return printJSON(forecast)

	case "locations":
		locs, err := c.ListLocations(ctx)
		if err != nil {
			return err
		}
		return printJSON(locs)

	case "location":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		loc, err := c.GetLocation(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(loc)

	case "add-location":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "location name")
		lat := optionalFloat(fs, "lat", "latitude")
		lon := optionalFloat(fs, "lon", "longitude")
		alt := optionalFloat(fs, "alt", "altitude")
		if err := fs.Parse(args); err != nil {
			return err
		}
		loc, err := c.CreateLocation(ctx, apiclient.CreateLocationInput{
			Name:      *name,
			Latitude:  lat.value,
			Longitude: lon.value,
			Altitude:  alt.value,
		})
		if err != nil {
			return err
		}
		return printJSON(loc)

	case "quick-add":
		if len(args) == 0 {
			return errors.New("quick-add needs a name")
		}
		loc, err := c.QuickAddLocation(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(loc)

	case "favorites":
		locs, cached, err := c.Favorites(ctx)
		if err != nil {
			return err
		}
		if cached {
			fmt.Fprintln(os.Stderr, "API unreachable; showing cached favorites")
		}
		return printJSON(locs)

	case "favorite":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		res, err := c.AddFavorite(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "favorite-name":
		if len(args) == 0 {
			return errors.New("favorite-name needs a name")
		}
		date := today()
		if len(args) > 1 {
			date = args[1]
		}
		res, err := c.AddFavoriteByName(ctx, args[0], date)
		if err != nil {
			return err
		}
		return printJSON(res)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// splitPositional takes the leading positional argument and returns the rest for flag parsing.
func splitPositional(args []string) (string, []string) {
	if len(args) == 0 || (len(args[0]) > 0 && args[0][0] == '-') {
		return "", args
	}
	return args[0], args[1:]
}

func parseID(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return uint(id), nil
}

func today() string {
	return time.Now().UTC().Format(weather.DateLayout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// floatFlag is a float flag that stays nil unless set.
type floatFlag struct {
	value *float64
}

func (f *floatFlag) String() string {
	if f.value == nil {
		return ""
	}
	return strconv.FormatFloat(*f.value, 'f', -1, 64)
}

func (f *floatFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = &v
	return nil
}

func optionalFloat(fs *flag.FlagSet, name, usage string) *floatFlag {
	f := &floatFlag{}
	fs.Var(f, name, usage)
	return f
}
