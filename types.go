package main

import (
	"github.com/cor0nius/meteomap/internal/geocode"
	"github.com/cor0nius/meteomap/internal/panel"
	"github.com/cor0nius/meteomap/internal/selection"
)

type PointRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

type PlaceRequest struct {
	Lat  *float64 `json:"lat" validate:"required,latitude"`
	Lng  *float64 `json:"lng" validate:"required,longitude"`
	Name string   `json:"name" validate:"required,max=200"`
}

type DateRequest struct {
	Date string `json:"date" validate:"required,max=32"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type SelectionResponse struct {
	Selection selection.Snapshot `json:"selection"`
	Panel     *panel.View        `json:"panel,omitempty"`
}

type SearchResponse struct {
	Query   string          `json:"query"`
	Results []geocode.Place `json:"results"`
}

type ChatResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type ConfigResponse struct {
	DevMode          bool   `json:"dev_mode"`
	SearchEnabled    bool   `json:"search_enabled"`
	AssistantEnabled bool   `json:"assistant_enabled"`
	CoordinateHint   string `json:"coordinate_hint"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
