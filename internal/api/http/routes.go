package httpapi

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-favorites/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, metrics *Metrics) {
	api := app.Group("/api")

	api.Get("/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c); err != nil {
			return err
		}
		date, err := weather.ParseDate(q.Date)
		if err != nil {
			return newValidationError(FieldError{Field: "date", Message: err.Error()})
		}
		source := service.DefaultSource()
		if q.Source != "" {
			source = weather.SourceMode(q.Source)
		}

		forecast, err := service.GetForecast(c.UserContext(), q.Location, date, source)
		if metrics != nil {
			metrics.ObserveForecast(forecastLabels(forecast, err))
		}
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	})

	api.Post("/locations", func(c *fiber.Ctx) error {
		var req createLocationRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return createLocation(c, service, req.toNewLocation())
	})

	api.Post("/locations/quick", func(c *fiber.Ctx) error {
		var req quickAddRequest
		if err := c.BodyParser(&req); err != nil {
			return newValidationError()
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		return createLocation(c, service, weather.NewLocation{Name: name})
	})

	api.Get("/locations", func(c *fiber.Ctx) error {
		locations, err := service.ListLocations(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(locations)
	})

	api.Get("/locations/:id", func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return weather.ErrLocationNotFound
		}
		location, err := service.GetLocation(c.UserContext(), uint(id))
		if err != nil {
			return err
		}
		return c.JSON(location)
	})

	api.Get("/favorites", func(c *fiber.Ctx) error {
		favorites, err := service.ListFavorites(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(favorites)
	})

	api.Post("/favorites", func(c *fiber.Ctx) error {
		var req addFavoriteRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if *req.LocationID <= 0 {
			return weather.ErrLocationNotFound
		}

		favorite, created, err := service.AddFavorite(c.UserContext(), uint(*req.LocationID))
		if err != nil {
			return err
		}
		if !created {
			return c.JSON(fiber.Map{"message": "Location is already in favorites", "favorite": favorite})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Location added to favorites", "favorite": favorite})
	})
}

func createLocation(c *fiber.Ctx, service *weather.Service, in weather.NewLocation) error {
	location, err := service.CreateLocation(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Location created successfully", "location": location})
}

func forecastLabels(f weather.Forecast, err error) (string, string) {
	switch {
	case err == nil:
		return string(f.Source), "ok"
	case errors.Is(err, weather.ErrNotFound):
		return "none", "not_found"
	default:
		return "none", "error"
	}
}

// bindJSON parses the body into out and validates it.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return newValidationError()
	}
	if n, ok := out.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validate.Struct(out); err != nil {
		return fromValidator(err)
	}
	return nil
}

// forecastQuery holds the query parameters of the forecast endpoint.
type forecastQuery struct {
	Location string `query:"location" validate:"required"`
	Date     string `query:"date" validate:"required"`
	Source   string `query:"source" validate:"omitempty,oneof=db external auto"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	q.Location = strings.TrimSpace(c.Query("location"))
	q.Date = strings.TrimSpace(c.Query("date"))
	q.Source = strings.ToLower(strings.TrimSpace(c.Query("source")))

	if err := validate.Struct(q); err != nil {
		return fromValidator(err)
	}
	return nil
}

type createLocationRequest struct {
	Name      string   `json:"name" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Altitude  *float64 `json:"altitude"`
}

func (r *createLocationRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r createLocationRequest) toNewLocation() weather.NewLocation {
	return weather.NewLocation{
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
	}
}

type quickAddRequest struct {
	Name string `json:"name"`
}

type addFavoriteRequest struct {
	LocationID *int `json:"locationId" validate:"required"`
}
