package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
)

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: startsAt must be RFC3339: %v", usecase.ErrInvalidInput, err))
		return
	}

	item, err := h.matchService.Create(ctx, principal, usecase.CreateMatchInput{
		ID:          req.ID,
		Team1:       req.Team1,
		Team2:       req.Team2,
		Venue:       req.Venue,
		Description: req.Description,
		StartsAt:    startsAt,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "match_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(item, h.now()))
}

func (h *Handler) SetMatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetMatchStatus")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setMatchStatusRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := pathValue(r, "matchID")
	item, err := h.matchService.SetStatus(ctx, principal, matchID, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "set match status failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item, h.now()))
}

// AdminListPlayers lists every player with its target for the match, if any.
func (h *Handler) AdminListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListPlayers")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := pathValue(r, "matchID")
	views, err := h.adminService.List(ctx, principal, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "admin list players failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]adminPlayerDTO, 0, len(views))
	for _, v := range views {
		items = append(items, adminPlayerToDTO(v))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AdminListPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListPredictions")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	source, err := sourceFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := pathValue(r, "matchID")
	views, err := h.predictionService.ListByMatch(ctx, principal, matchID, source)
	if err != nil {
		h.logger.WarnContext(ctx, "admin list predictions failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionViewsToDTO(views, h.now()))
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePlayer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createPlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.adminService.Create(ctx, principal, usecase.CreatePlayerInput{
		ID:   req.ID,
		Name: req.Name,
		Team: req.Team,
		Role: req.Role,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create player failed", "player_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, playerToDTO(item))
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePlayer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updatePlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := pathValue(r, "playerID")
	item, err := h.adminService.Update(ctx, principal, playerID, usecase.UpdatePlayerInput{
		Name: req.Name,
		Team: req.Team,
		Role: req.Role,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(item))
}

func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeletePlayer")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := pathValue(r, "playerID")
	if err := h.adminService.Delete(ctx, principal, playerID); err != nil {
		h.logger.WarnContext(ctx, "delete player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": playerID, "status": "deleted"})
}

func (h *Handler) SetPlayerTarget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetPlayerTarget")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setTargetRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := pathValue(r, "playerID")
	matchID := pathValue(r, "matchID")
	result, err := h.adminService.SetTarget(ctx, principal, playerID, matchID, usecase.TargetInput{
		Kind:         req.Type,
		Threshold:    *req.Target,
		ActualPoints: req.ActualPoints,
		IsSelected:   req.IsSelected,
		ClearActual:  req.ClearActualPoints,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set player target failed", "player_id", playerID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, setTargetResultDTO{
		Player:     playerToDTO(result.Player),
		Target:     targetToDTO(result.Target),
		Propagated: result.Propagated,
	})
}
