package main

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/limaJavier/coursetable/internal/app"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/timetable"
	"go.uber.org/zap"
)

const requestIdHeader = "X-Request-ID"

var validate = validator.New()

type solveRequest struct {
	Catalog  map[string]any `json:"catalog" validate:"required"`
	Config   map[string]any `json:"config"`
	Strategy string         `json:"strategy" validate:"omitempty,oneof=embedded postponed"`
	Solver   string         `json:"solver" validate:"omitempty,oneof=gini gophersat"`
}

type solveResponse struct {
	RunId string `json:"run_id"`
	timetable.Result
}

type validateResponse struct {
	RunId    string `json:"run_id"`
	Sections int    `json:"sections"`
}

type errorResponse struct {
	RunId string `json:"run_id"`
	Error string `json:"error"`
}

type handler struct {
	env    app.Env
	logger *zap.Logger
}

func newServer(env app.Env, logger *zap.Logger) *fiber.App {
	h := &handler{env: env, logger: logger}
	server := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
		ErrorHandler:          h.handleError,
	})

	server.Use(h.requestId)
	server.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	server.Post("/api/validate", h.validate)
	server.Post("/api/solve", h.solve)
	return server
}

// requestId tags every request with a run id and logs its outcome.
func (h *handler) requestId(c *fiber.Ctx) error {
	id := c.Get(requestIdHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIdHeader, id)
	c.Locals(requestIdHeader, id)

	start := time.Now()
	err := c.Next()
	h.logger.Info("request",
		zap.String("run_id", id),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}

func runId(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIdHeader).(string)
	return id
}

func (h *handler) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case isInputError(err):
		code = fiber.StatusUnprocessableEntity
	default:
		h.logger.Error("request failed", zap.String("run_id", runId(c)), zap.Error(err))
	}
	return c.Status(code).JSON(errorResponse{RunId: runId(c), Error: err.Error()})
}

func isInputError(err error) bool {
	for _, target := range []error{model.ErrDuplicateKey, model.ErrUnknownReference, model.ErrMalformed, model.ErrNoEligibleFaculty, model.ErrEmptyDomain} {
		if errors.Is(err, target) {
			return true
		}
	}
	var invalid validator.ValidationErrors
	return errors.As(err, &invalid)
}

func (h *handler) session(c *fiber.Ctx) (*app.Session, error) {
	var request solveRequest
	if err := c.BodyParser(&request); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(request); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	config, err := app.LoadConfig(h.env.Config)
	if request.Config != nil {
		config, err = model.DecodeConfig(request.Config)
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	rawCatalog, err := model.DecodeRawCatalog(request.Catalog)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	catalog, err := model.ProcessRawCatalog(rawCatalog, config)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	strategy, solver := request.Strategy, request.Solver
	if strategy == "" {
		strategy = h.env.Strategy
	}
	if solver == "" {
		solver = h.env.Solver
	}
	return app.NewSession(catalog, config, strategy, solver, h.logger.With(zap.String("run_id", runId(c))))
}

func (h *handler) validate(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(validateResponse{RunId: runId(c), Sections: len(session.Plan.Sections())})
}

func (h *handler) solve(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := session.Solve(c.UserContext())
	if err != nil {
		return err
	}

	// A solved schedule may be requested as CSV; anything else keeps the JSON envelope
	if c.Query("format") == "csv" && result.Status.Solved() {
		text, err := model.ScheduleCSVString(result.Entries)
		if err != nil {
			return err
		}
		c.Type("csv")
		return c.SendString(text)
	}
	return c.JSON(solveResponse{RunId: runId(c), Result: result})
}
