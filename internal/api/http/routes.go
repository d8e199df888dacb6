package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/solarcast/solarcast/internal/common"
	"github.com/solarcast/solarcast/internal/ensemble"
	"github.com/solarcast/solarcast/internal/export"
	"github.com/solarcast/solarcast/internal/geo"
	"github.com/solarcast/solarcast/internal/nasapower"
)

var validate = validator.New()

const (
	requestDateLayout = "2006-01-02"
	apiDateLayout     = "20060102"
	maxRangeDays      = 365
	fetchTimeout      = 90 * time.Second
)

// Services bundles the dependencies the HTTP handlers need. The ensemble
// handler is injected here rather than held as a package global so reloads
// stay encapsulated behind its own locking.
type Services struct {
	Client    *nasapower.Client
	Predictor *ensemble.Handler
	Resolver  *geo.Resolver
	Exports   *export.Store
	MADPerKWh float64
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, s Services) {
	app.Get("/health", s.handleHealth)

	v1 := app.Group("/api/v1")
	v1.Get("/model-metrics", s.handleModelMetrics)
	v1.Get("/model-health", s.handleModelHealth)
	v1.Post("/validate-location", s.handleValidateLocation)
	v1.Post("/predictions", s.handlePredictions)
	v1.Post("/export", s.handleExport)
	v1.Get("/export/:id", s.handleExportDownload)
	v1.Post("/reload-model", s.handleReloadModel)
}

// locationRequest identifies a point either by coordinates or by a named
// place resolved through the geocoder.
type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
}

// resolve returns the request's coordinates, geocoding when necessary.
func (l *locationRequest) resolve(r *geo.Resolver) (lat, lon float64, err error) {
	if l.Latitude != nil && l.Longitude != nil {
		return *l.Latitude, *l.Longitude, nasapower.ValidateCoordinates(*l.Latitude, *l.Longitude)
	}
	if l.City != "" {
		return r.Resolve(l.City, l.Country)
	}
	return 0, 0, &nasapower.ValidationError{Field: "location", Message: "latitude/longitude or city is required"}
}

type predictionsRequest struct {
	locationRequest
	Capacity     float64 `json:"capacity" validate:"omitempty,gt=0"`
	StartDate    string  `json:"start_date" validate:"required"`
	EndDate      string  `json:"end_date" validate:"required"`
	ParameterSet string  `json:"parameter_set" validate:"omitempty,oneof=essential important additional all"`
}

// predictionRecord is one served prediction row. Weather values are
// rounded to 3 decimals; missing observations stay null.
type predictionRecord struct {
	Date          string              `json:"date"`
	ProductionKWh float64             `json:"pv_production_kwh"`
	SavingsMAD    float64             `json:"financial_savings_mad"`
	Weather       map[string]*float64 `json:"weather_data"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type summaryBlock struct {
	ensemble.Summary
	DateRange        dateRange `json:"date_range"`
	DataCompleteness string    `json:"data_completeness"`
}

type metadataBlock struct {
	Location       string  `json:"location"`
	Capacity       float64 `json:"capacity"`
	ConversionRate string  `json:"conversion_rate"`
	Model          string  `json:"model"`
	DataSource     string  `json:"data_source"`
}

type predictionsResponse struct {
	Success     bool               `json:"success"`
	Predictions []predictionRecord `json:"predictions"`
	Summary     summaryBlock       `json:"summary"`
	Metadata    metadataBlock      `json:"metadata"`
}

func (s Services) handlePredictions(c *fiber.Ctx) error {
	var req predictionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lat, lon, err := req.resolve(s.Resolver)
	if err != nil {
		return toHTTPError(err)
	}

	start, err := time.Parse(requestDateLayout, req.StartDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(requestDateLayout, req.EndDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
	}
	if !start.Before(end) {
		return fiber.NewError(fiber.StatusBadRequest, "start date must be before end date")
	}
	if int(end.Sub(start).Hours()/24) > maxRangeDays {
		return fiber.NewError(fiber.StatusBadRequest, "date range cannot exceed 1 year")
	}

	capacity := req.Capacity
	if capacity == 0 {
		capacity = 1.0
	}
	paramSet := nasapower.ParameterSet(req.ParameterSet)
	if req.ParameterSet == "" {
		paramSet = nasapower.ParameterSetImportant
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	table, err := s.Client.FetchTable(ctx, lat, lon, start.Format(apiDateLayout), end.Format(apiDateLayout), paramSet)
	if err != nil {
		return toHTTPError(err)
	}

	perUnit, err := s.Predictor.Predict(table)
	if err != nil {
		return toHTTPError(err)
	}

	// Capacity scaling is applied here, outside the predict contract.
	production := make([]float64, len(perUnit))
	for i, p := range perUnit {
		production[i] = p * capacity
	}
	savings := ensemble.FinancialSavings(production, s.MADPerKWh)

	records := make([]predictionRecord, table.NumRows())
	dates := table.Dates()
	for i := range records {
		weather := make(map[string]*float64, table.NumColumns())
		for name, v := range table.Row(i) {
			if nasapower.IsMissing(v) {
				weather[name] = nil
				continue
			}
			rounded := common.Round(v, 3)
			weather[name] = &rounded
		}
		records[i] = predictionRecord{
			Date:          dates[i].Format(requestDateLayout),
			ProductionKWh: common.Round(production[i], 1),
			SavingsMAD:    common.Round(savings[i], 1),
			Weather:       weather,
		}
	}

	completeness := table.Completeness()
	resp := predictionsResponse{
		Success:     true,
		Predictions: records,
		Summary: summaryBlock{
			Summary: ensemble.Summarize(production, s.MADPerKWh),
			DateRange: dateRange{
				Start: dates[0].Format(requestDateLayout),
				End:   dates[len(dates)-1].Format(requestDateLayout),
			},
			DataCompleteness: completeness.Completeness,
		},
		Metadata: metadataBlock{
			Location:       fmt.Sprintf("%v, %v", lat, lon),
			Capacity:       capacity,
			ConversionRate: fmt.Sprintf("%v MAD/kWh", s.MADPerKWh),
			Model:          "Final PV Model",
			DataSource:     nasapower.SourceLabel,
		},
	}

	return c.JSON(resp)
}

func (s Services) handleValidateLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lat, lon, err := req.resolve(s.Resolver)
	if err != nil {
		return toHTTPError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	return c.JSON(s.Client.CheckAvailability(ctx, lat, lon))
}

func (s Services) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"model_loaded": s.Predictor.Loaded(),
		"model_health": s.Predictor.CheckHealth(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s Services) handleModelMetrics(c *fiber.Ctx) error {
	if !s.Predictor.Loaded() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "model not loaded")
	}

	metrics := s.Predictor.Metrics()
	return c.JSON(fiber.Map{
		"metrics":           metrics,
		"temporal_coverage": "2020-present (~4-day delay)",
		"spatial_coverage":  "Global",
		"parameters_used": []string{
			"System Capacity (kWp)",
			"Temperature (2m)",
			"Wind Speed",
			"Precipitation",
			"Humidity",
			"Solar Irradiance (GHI, DNI, Diffuse)",
			"Cloud Amount",
			"Thermal Radiation",
		},
		"geographic_info": fiber.Map{
			"coordinate_system": "WGS84",
			"resolution":        "Point data",
			"lat_range":         "[-90, 90]",
			"lon_range":         "[-180, 180]",
		},
	})
}

func (s Services) handleModelHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"health_status": s.Predictor.CheckHealth(),
		"model_metrics": s.Predictor.Metrics(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s Services) handleExport(c *fiber.Ctx) error {
	var payload export.Payload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body: "+err.Error())
	}
	if len(payload.Predictions) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no prediction data provided")
	}

	data, err := export.BuildWorkbook(payload)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "export failed: "+err.Error())
	}

	rec := s.Exports.Put(export.Filename(payload), data)
	return c.JSON(fiber.Map{
		"success":      true,
		"export_id":    rec.ID,
		"filename":     rec.Filename,
		"download_url": "/api/v1/export/" + rec.ID,
	})
}

func (s Services) handleExportDownload(c *fiber.Ctx) error {
	rec, err := s.Exports.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "export not found or expired")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch export")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+rec.Filename+`"`)
	return c.Send(rec.Data)
}

func (s Services) handleReloadModel(c *fiber.Ctx) error {
	if err := s.Predictor.Reload(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "model reload failed: "+err.Error())
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "model reloaded successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// toHTTPError maps core error kinds onto HTTP statuses: caller mistakes are
// 4xx, provider trouble is 502/503, and defensive invariants are 500.
func toHTTPError(err error) error {
	var (
		validationErr  *nasapower.ValidationError
		providerErr    *nasapower.ProviderError
		unavailableErr *nasapower.DataSourceUnavailableError
		parseErr       *nasapower.ParseError
		notLoadedErr   *ensemble.NotLoadedError
		unsupportedErr *ensemble.UnsupportedArtifactError
		lengthErr      *ensemble.LengthMismatchError
		emptyErr       *ensemble.EmptyInputError
	)

	switch {
	case errors.As(err, &validationErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &emptyErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, geo.ErrNotConfigured):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &unavailableErr):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &providerErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &parseErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &notLoadedErr):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &unsupportedErr):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &lengthErr):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
