package api

import (
	"net/http"

	"resbook/internal/models"
)

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.listResources(w, r, models.ResourceRoom)
}

func (s *Server) handleListTransports(w http.ResponseWriter, r *http.Request) {
	s.listResources(w, r, models.ResourceTransport)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request, resourceType string) {
	resources, err := s.resources.ListActive(r.Context(), resourceType)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

type resourceRequest struct {
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Capacity   int64    `json:"capacity"`
	Facilities []string `json:"facilities"`
	Vehicle    string   `json:"vehicle"`
	Driver     string   `json:"driver"`
	SortOrder  int64    `json:"sort_order"`
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	resource := &models.Resource{
		Type:       req.Type,
		Name:       req.Name,
		Capacity:   req.Capacity,
		Facilities: req.Facilities,
		Vehicle:    req.Vehicle,
		Driver:     req.Driver,
		SortOrder:  req.SortOrder,
	}
	if err := s.resources.Create(r.Context(), resource); err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	existing, err := s.resources.Get(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	existing.Type = req.Type
	existing.Name = req.Name
	existing.Capacity = req.Capacity
	existing.Facilities = req.Facilities
	existing.Vehicle = req.Vehicle
	existing.Driver = req.Driver
	existing.SortOrder = req.SortOrder

	if err := s.resources.Update(r.Context(), existing); err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeactivateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	if err := s.resources.Deactivate(r.Context(), id); err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
