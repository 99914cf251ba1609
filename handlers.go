package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cor0nius/meteomap/internal/assistant"
	"github.com/cor0nius/meteomap/internal/forecastclient"
	"github.com/cor0nius/meteomap/internal/geocode"
	"github.com/cor0nius/meteomap/internal/panel"
	"github.com/cor0nius/meteomap/internal/report"
	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/sony/gobreaker"
)

// This file contains the HTTP handlers for the application. The selection
// handlers drive the selection.Controller one step at a time and answer with
// its snapshot; finalizing a date hands the selection to the panel, which
// starts the forecast fetch in the background. The panel handlers only read
// what the forecast client has produced so far.

// @Summary      Select a map point
// @Description  Starts a new selection at the clicked point, discarding any selection in progress.
// @Tags         selection
// @Accept       json
// @Produce      json
// @Param        body body      PointRequest  true  "Clicked coordinates"
// @Success      200  {object}  SelectionResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Invalid coordinates"
// @Router       /api/selection/click [post]
func (cfg *apiConfig) handlerSelectionClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	var req PointRequest
	if err := cfg.decodeJSONBody(r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	coords, err := selection.NewCoordinates(*req.Lat, *req.Lng)
	if err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}

	cfg.selection.Click(coords)
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// @Summary      Select a search result
// @Description  Starts a new selection at a place chosen from the search box.
// @Tags         selection
// @Accept       json
// @Produce      json
// @Param        body body      PlaceRequest  true  "Place coordinates and name"
// @Success      200  {object}  SelectionResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Invalid place"
// @Router       /api/selection/place [post]
func (cfg *apiConfig) handlerSelectionPlace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	var req PlaceRequest
	if err := cfg.decodeJSONBody(r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	coords, err := selection.NewCoordinates(*req.Lat, *req.Lng)
	if err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}

	cfg.selection.ClickPlace(coords, strings.TrimSpace(req.Name))
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// @Summary      Confirm the selected point
// @Tags         selection
// @Produce      json
// @Success      200  {object}  SelectionResponse
// @Failure      409  {object}  ErrorResponse "Conflict - No point pending confirmation"
// @Router       /api/selection/confirm-point [post]
func (cfg *apiConfig) handlerSelectionConfirmPoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	if err := cfg.selection.ConfirmPoint(); err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// @Summary      Enter the forecast date
// @Description  Stores the date typed by the user. An empty date is reported as a validation error.
// @Tags         selection
// @Accept       json
// @Produce      json
// @Param        body body      DateRequest  true  "Date in YYYY-MM-DD form"
// @Success      200  {object}  SelectionResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Invalid date"
// @Failure      409  {object}  ErrorResponse "Conflict - Point not confirmed yet"
// @Router       /api/selection/date [post]
func (cfg *apiConfig) handlerSelectionDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	var req DateRequest
	if err := cfg.decodeJSONBody(r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := cfg.selection.SetDate(req.Date); err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// @Summary      Confirm the date and load the forecast
// @Description  Finalizes the selection and starts fetching its forecast. The response carries
// @Description  the panel in its loading state; poll /api/panel for the result.
// @Tags         selection
// @Produce      json
// @Success      202  {object}  SelectionResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Invalid date"
// @Failure      409  {object}  ErrorResponse "Conflict - No date pending confirmation"
// @Router       /api/selection/confirm-date [post]
func (cfg *apiConfig) handlerSelectionConfirmDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	sel, err := cfg.selection.ConfirmDate()
	if err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}
	cfg.logger.Debug("selection finalized", "coords", sel.Coords.String(), "date", sel.Date.String())

	view := cfg.panel.View()
	cfg.respondWithJSON(w, http.StatusAccepted, SelectionResponse{
		Selection: cfg.selection.Snapshot(),
		Panel:     &view,
	})
}

// @Summary      Cancel the selection in progress
// @Tags         selection
// @Produce      json
// @Success      200  {object}  SelectionResponse
// @Router       /api/selection/cancel [post]
func (cfg *apiConfig) handlerSelectionCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	cfg.selection.Cancel()
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// @Summary      Get the selection state
// @Tags         selection
// @Produce      json
// @Success      200  {object}  SelectionResponse
// @Router       /api/selection [get]
func (cfg *apiConfig) handlerSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, SelectionResponse{Selection: cfg.selection.Snapshot()})
}

// respondWithSelectionError maps selection errors to status codes.
func (cfg *apiConfig) respondWithSelectionError(w http.ResponseWriter, err error) {
	var verr *selection.ValidationError
	switch {
	case errors.As(err, &verr):
		cfg.respondWithError(w, http.StatusBadRequest, verr.Error(), err)
	case errors.Is(err, selection.ErrInvalidTransition):
		cfg.respondWithError(w, http.StatusConflict, err.Error(), err)
	default:
		cfg.respondWithError(w, http.StatusInternalServerError, "Selection failed", err)
	}
}

// @Summary      Get the forecast panel
// @Description  Returns the sidebar view for the displayed selection: loading, error or the
// @Description  normalized forecast with narrative, averages, hourly rows and chart axes.
// @Tags         panel
// @Produce      json
// @Success      200  {object}  panel.View
// @Router       /api/panel [get]
func (cfg *apiConfig) handlerPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, cfg.panel.View())
}

// @Summary      Retry a failed forecast fetch
// @Tags         panel
// @Produce      json
// @Success      202  {object}  panel.View
// @Failure      409  {object}  ErrorResponse "Conflict - Nothing to retry"
// @Router       /api/panel/retry [post]
func (cfg *apiConfig) handlerPanelRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	if err := cfg.panel.Retry(); err != nil {
		if errors.Is(err, forecastclient.ErrNothingToRetry) {
			cfg.respondWithError(w, http.StatusConflict, err.Error(), err)
			return
		}
		cfg.respondWithError(w, http.StatusInternalServerError, "Retry failed", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusAccepted, cfg.panel.View())
}

// @Summary      Close the forecast panel
// @Tags         panel
// @Produce      json
// @Success      200  {object}  panel.View
// @Router       /api/panel/close [post]
func (cfg *apiConfig) handlerPanelClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	cfg.panel.Close()
	cfg.respondWithJSON(w, http.StatusOK, cfg.panel.View())
}

// @Summary      Get the forecast chart
// @Tags         panel
// @Produce      png
// @Success      200
// @Failure      404  {object}  ErrorResponse "Not Found - No forecast loaded"
// @Router       /api/panel/chart.png [get]
func (cfg *apiConfig) handlerPanelChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	var buf bytes.Buffer
	if err := cfg.panel.ChartPNG(&buf); err != nil {
		if errors.Is(err, panel.ErrNotReady) || errors.Is(err, report.ErrNoRows) {
			cfg.respondWithError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		cfg.logger.Error("error writing response", "error", err)
	}
}

// @Summary      Export the forecast report
// @Description  Renders the loaded forecast as an A4 PDF with narrative, averages, chart and hourly table.
// @Tags         panel
// @Produce      application/pdf
// @Success      200
// @Failure      404  {object}  ErrorResponse "Not Found - No forecast loaded"
// @Router       /api/report.pdf [get]
func (cfg *apiConfig) handlerReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	doc, err := cfg.panel.Document()
	if err != nil {
		cfg.respondWithError(w, http.StatusNotFound, err.Error(), nil)
		return
	}

	var buf bytes.Buffer
	if err := cfg.reports.Write(&buf, doc); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="previsao-%s.pdf"`, doc.Selection.Date.String()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		cfg.logger.Error("error writing response", "error", err)
	}
}

// @Summary      Search places
// @Description  Resolves a coordinate literal ("lat, lng") or, when geocoding is configured, a place name.
// @Tags         geocoding
// @Produce      json
// @Param        q    query     string  true  "Coordinates or place name"
// @Success      200  {object}  SearchResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Query is not a coordinate pair"
// @Failure      404  {object}  ErrorResponse "Not Found - No results"
// @Failure      502  {object}  ErrorResponse "Bad Gateway - Geocoding failed"
// @Failure      503  {object}  ErrorResponse "Service Unavailable - Geocoding temporarily disabled"
// @Router       /api/search [get]
func (cfg *apiConfig) handlerSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	q := r.URL.Query().Get("q")
	places, err := cfg.searcher.Search(r.Context(), q)
	if err != nil {
		cfg.respondWithGeocodeError(w, err)
		return
	}
	cfg.logger.Debug("search resolved", "query", q, "results", len(places))
	cfg.respondWithJSON(w, http.StatusOK, SearchResponse{Query: q, Results: places})
}

// @Summary      Name a map point
// @Tags         geocoding
// @Produce      json
// @Param        lat  query     number  true  "Latitude"
// @Param        lng  query     number  true  "Longitude"
// @Success      200  {object}  geocode.Place
// @Failure      400  {object}  ErrorResponse "Bad Request - Invalid coordinates"
// @Failure      502  {object}  ErrorResponse "Bad Gateway - Geocoding failed"
// @Router       /api/geocode/reverse [get]
func (cfg *apiConfig) handlerReverseGeocode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "lat and lng query parameters must be numbers", nil)
		return
	}
	coords, err := selection.NewCoordinates(lat, lng)
	if err != nil {
		cfg.respondWithSelectionError(w, err)
		return
	}

	place, err := cfg.searcher.Reverse(r.Context(), coords.Lat, coords.Lng)
	if err != nil {
		cfg.respondWithGeocodeError(w, err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, place)
}

// respondWithGeocodeError maps geocoding errors to status codes.
func (cfg *apiConfig) respondWithGeocodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, geocode.ErrInvalidQuery):
		cfg.respondWithError(w, http.StatusBadRequest, geocode.CoordinateHint, err)
	case errors.Is(err, geocode.ErrNoResultsFound):
		cfg.respondWithError(w, http.StatusNotFound, "Nenhum local encontrado", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		cfg.respondWithError(w, http.StatusServiceUnavailable, "Geocoding temporarily unavailable", err)
	default:
		cfg.respondWithError(w, http.StatusBadGateway, "Geocoding failed", err)
	}
}

// @Summary      Ask the weather assistant
// @Description  Sends a question to the assistant, with the displayed (or pending) point as context.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        body body      ChatRequest  true  "Question"
// @Success      200  {object}  ChatResponse
// @Failure      400  {object}  ErrorResponse "Bad Request - Empty question"
// @Failure      429  {object}  ErrorResponse "Too Many Requests"
// @Failure      502  {object}  ErrorResponse "Bad Gateway - Assistant failed"
// @Failure      503  {object}  ErrorResponse "Service Unavailable - Assistant not configured"
// @Router       /api/chat [post]
func (cfg *apiConfig) handlerChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	if cfg.assistant == nil {
		cfg.respondWithError(w, http.StatusServiceUnavailable, "Assistant not configured", nil)
		return
	}

	var req ChatRequest
	if err := cfg.decodeJSONBody(r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), err)
		return
	}

	msg, err := cfg.assistant.Reply(r.Context(), req.Message, cfg.chatLocation())
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion):
			cfg.respondWithError(w, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, assistant.ErrRateLimited):
			cfg.respondWithError(w, http.StatusTooManyRequests, err.Error(), err)
		default:
			cfg.respondWithError(w, http.StatusBadGateway, assistant.FailureReply, err)
		}
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, ChatResponse{
		ID:        msg.ID.String(),
		Role:      msg.Role,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}

// chatLocation prefers the displayed selection over a point still being picked.
func (cfg *apiConfig) chatLocation() *selection.Coordinates {
	if sel, ok := cfg.panel.Selection(); ok {
		return &sel.Coords
	}
	return cfg.selection.Snapshot().Coords
}

// @Summary      Get application configuration
// @Description  Tells the client which optional features are enabled.
// @Tags         configuration
// @Produce      json
// @Success      200  {object}  ConfigResponse
// @Router       /api/config [get]
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, ConfigResponse{
		DevMode:          cfg.devMode,
		SearchEnabled:    cfg.geocoder != nil,
		AssistantEnabled: cfg.assistant != nil,
		CoordinateHint:   geocode.CoordinateHint,
	})
}

func (cfg *apiConfig) handlerHealthz(w http.ResponseWriter, r *http.Request) {
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlerResetCache is a development-only endpoint that empties the geocode cache.

// @Summary      Reset the geocode cache (development only)
// @Tags         development
// @Produce      json
// @Success      200  {object}  map[string]string "Example: `{\"status\": \"cache reset\"}`"
// @Failure      500  {object}  ErrorResponse "Internal Server Error - Failed to flush cache"
// @Router       /dev/reset-cache [post]
func (cfg *apiConfig) handlerResetCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.logger.Debug("cache reset request received")

	if err := cfg.searcher.Flush(r.Context()); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to flush cache", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, map[string]string{"status": "cache reset"})
}
