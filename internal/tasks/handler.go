package tasks

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/apperror"
	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/response"
)

// Handler handles HTTP requests for tasks. The owner ID always comes from
// the verified access token, never from the request payload.
type Handler struct {
	service TaskService
}

// NewHandler creates a new task handler.
func NewHandler(service TaskService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /tasks.
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	task, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      Status(req.Status),
	})
	if err != nil {
		return err
	}

	return response.JSON(c, http.StatusCreated, task)
}

// List handles GET /tasks with ?page=, ?limit=, ?status= and ?order= query
// params.
func (h *Handler) List(c echo.Context) error {
	input := ListInput{
		Page:   queryInt(c, "page", defaultPage),
		Limit:  queryInt(c, "limit", defaultLimit),
		Status: Status(c.QueryParam("status")),
		Order:  c.QueryParam("order"),
	}

	items, meta, err := h.service.List(c.Request().Context(), auth.GetUserID(c), input)
	if err != nil {
		return err
	}

	return response.Paginated(c, http.StatusOK, items, meta)
}

// Get handles GET /tasks/:id.
func (h *Handler) Get(c echo.Context) error {
	task, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return response.JSON(c, http.StatusOK, task)
}

// Update handles PUT /tasks/:id. Absent fields keep their current values.
func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	var status *Status
	if req.Status != nil {
		s := Status(*req.Status)
		status = &s
	}

	task, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), c.Param("id"), UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	})
	if err != nil {
		return err
	}

	return response.JSON(c, http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id. Replies with the standard envelope so
// clients can treat every endpoint uniformly.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}

	return response.JSON(c, http.StatusOK, map[string]string{
		"message": "task deleted",
	})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or not a number.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
