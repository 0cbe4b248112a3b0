package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-analysis/internal/geocode"
	"github.com/i474232898/weather-analysis/internal/store"
	"github.com/i474232898/weather-analysis/internal/weather"
)

var validate = validator.New()

// Analyzer runs one weather analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req weather.AnalysisRequest) (*weather.AnalysisResult, error)
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, city, country string) (weather.Location, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, analyzer Analyzer, results weather.ResultStore, geo Geocoder) {
	api := app.Group("/api")

	api.Post("/weather-analysis", func(c *fiber.Ctx) error {
		var body analysisBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
		body.UserType = string(weather.ParseUserType(body.UserType))
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days, err := body.PredictionDays.resolve()
		if err != nil {
			return err
		}

		req := weather.AnalysisRequest{
			Location:       weather.Location{Lat: *body.Lat, Lon: *body.Lon},
			UserType:       weather.UserType(body.UserType),
			PredictionDays: days,
		}
		if body.TargetDate != "" {
			d, err := weather.ParseDate(body.TargetDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "target_date must be YYYY-MM-DD")
			}
			req.TargetDate = &d
		}

		result, err := analyzer.Analyze(c.UserContext(), req)
		if err != nil {
			return err
		}

		return c.JSON(analysisResponse{Success: true, AnalysisResult: result})
	})

	api.Get("/weather-analysis/latest", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return err
		}

		result, err := results.GetLatest(loc)
		if err != nil {
			return err
		}

		return c.JSON(analysisResponse{Success: true, AnalysisResult: &result})
	})

	api.Get("/weather-analysis/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return err
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		items, err := results.GetRange(req.Location, req.From, req.To)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"location": req.Location,
			"from":     req.From,
			"to":       req.To,
			"results":  items,
		})
	})

	api.Get("/geocode", func(c *fiber.Ctx) error {
		q := placeQuery{City: c.Query("city"), Country: c.Query("country")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := geo.Resolve(c.UserContext(), q.City, q.Country)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"city":     q.City,
			"country":  q.Country,
			"location": loc,
		})
	})
}

// ErrorHandler renders every failure as {"success": false, "error": ...} with
// a status derived from the error kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(errorResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrInvalidLocation), errors.Is(err, weather.ErrInvalidHorizon):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrInsufficientData):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, weather.ErrDataSourceUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, store.ErrNotFound), errors.Is(err, geocode.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, geocode.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type analysisResponse struct {
	Success bool `json:"success"`
	*weather.AnalysisResult
}

// analysisBody is the POST /api/weather-analysis payload.
type analysisBody struct {
	Lat            *float64       `json:"lat" validate:"required"`
	Lon            *float64       `json:"lon" validate:"required"`
	UserType       string         `json:"user_type" validate:"required,oneof=farmer driver event_organizer"`
	PredictionDays predictionDays `json:"prediction_days"`
	TargetDate     string         `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
}

// predictionDays accepts either a JSON number or a numeric string.
type predictionDays struct {
	n   int
	set bool
}

func (p *predictionDays) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*p = predictionDays{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: prediction_days must be an integer, got %s", weather.ErrInvalidHorizon, string(data))
	}
	*p = predictionDays{n: n, set: true}
	return nil
}

// resolve applies the default and clamps to the longest supported horizon.
func (p predictionDays) resolve() (int, error) {
	switch {
	case !p.set:
		return weather.DefaultHorizonDays, nil
	case p.n <= 0:
		return 0, fmt.Errorf("%w: prediction_days must be positive, got %d", weather.ErrInvalidHorizon, p.n)
	case p.n > weather.MaxHorizonDays:
		return weather.MaxHorizonDays, nil
	default:
		return p.n, nil
	}
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Lat string `validate:"required,numeric"`
	Lon string `validate:"required,numeric"`
}

func parseLocationQuery(c *fiber.Ctx) (weather.Location, error) {
	q := locationQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
	if err := validate.Struct(q); err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}

	loc := weather.Location{Lat: lat, Lon: lon}
	if err := weather.ValidateLocation(loc); err != nil {
		return weather.Location{}, err
	}
	return loc, nil
}

type placeQuery struct {
	City    string `validate:"required"`
	Country string
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location weather.Location
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := parseTime(toStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
