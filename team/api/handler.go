// team/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/api"
	"github.com/Ftotnem/GO-TEAMS/team/service"
	"github.com/gorilla/mux"
)

const requestTimeout = 10 * time.Second

// TeamAPIHandlers holds references to the services that handle business logic.
type TeamAPIHandlers struct {
	PlayerService *service.PlayerService
	TeamService   *service.TeamService
}

// NewTeamAPIHandlers is the constructor for the API handlers.
func NewTeamAPIHandlers(ps *service.PlayerService, ts *service.TeamService) *TeamAPIHandlers {
	return &TeamAPIHandlers{
		PlayerService: ps,
		TeamService:   ts,
	}
}

type CreatePlayerRequest struct {
	Name string `json:"name"`
}

type CreateTeamRequest struct {
	Name string `json:"name"`
}

// statusFor maps a service error kind onto an HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict, service.KindCapacityExceeded:
		return http.StatusConflict
	case service.KindInvalidState:
		return http.StatusUnprocessableEntity
	case service.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err to the client. Infrastructure details stay in the log.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	switch kind {
	case service.KindInfrastructure:
		log.Printf("ERROR: %s: %v", op, err)
		w.Header().Set("Retry-After", "1")
		api.WriteErrorReason(w, status, "Service temporarily unavailable, retry later", kind.String())
	case service.KindUnknown:
		log.Printf("ERROR: %s: unexpected error: %v", op, err)
		api.WriteInternalServerError(w, "Internal server error")
	default:
		api.WriteErrorReason(w, status, err.Error(), kind.String())
	}
}

func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := api.TokenFromRequest(r)
	if token == "" {
		api.WriteUnauthorized(w, "Authorization token is required")
		return "", false
	}
	return token, true
}

func decodeName(w http.ResponseWriter, r *http.Request, dst *string) bool {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if strings.TrimSpace(req.Name) == "" {
		api.WriteBadRequest(w, "Name is required")
		return false
	}
	*dst = req.Name
	return true
}

// CreatePlayerHandler registers a player and returns it with its token.
// POST /api/v1/users
func (h *TeamAPIHandlers) CreatePlayerHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if !decodeName(w, r, &req.Name) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	player, err := h.PlayerService.CreatePlayer(ctx, req.Name)
	if err != nil {
		writeServiceError(w, "create player", err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, player)
}

// AdvanceLevelHandler applies one level-up to the caller.
// PUT /api/v1/users
func (h *TeamAPIHandlers) AdvanceLevelHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.PlayerService.AdvanceLevel(ctx, token)
	if err != nil {
		writeServiceError(w, "advance level", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

// CreateTeamHandler creates a team led by the caller.
// POST /api/v1/teams
func (h *TeamAPIHandlers) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req CreateTeamRequest
	if !decodeName(w, r, &req.Name) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := h.TeamService.CreateTeam(ctx, req.Name, token)
	if err != nil {
		writeServiceError(w, "create team", err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, team)
}

// SampleTeamsHandler lists a random selection of joinable teams.
// GET /api/v1/teams/random
func (h *TeamAPIHandlers) SampleTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	teams, err := h.TeamService.SampleJoinableTeams(ctx)
	if err != nil {
		writeServiceError(w, "sample teams", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, teams)
}

// GetTeamHandler returns a team and its members.
// GET /api/v1/teams/{name}
func (h *TeamAPIHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := h.TeamService.GetTeamByName(ctx, name)
	if err != nil {
		writeServiceError(w, "get team", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// JoinTeamHandler adds the caller to a team.
// POST /api/v1/teams/{teamId}/join
func (h *TeamAPIHandlers) JoinTeamHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	teamID := mux.Vars(r)["teamId"]

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := h.TeamService.JoinTeam(ctx, teamID, token)
	if err != nil {
		writeServiceError(w, "join team", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// LeaveTeamHandler removes the caller from its team.
// POST /api/v1/teams/leave
func (h *TeamAPIHandlers) LeaveTeamHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.TeamService.LeaveTeam(ctx, token); err != nil {
		writeServiceError(w, "leave team", err)
		return
	}
	api.WriteNoContent(w)
}

// RegisterRoutes registers all API endpoints for the Team Service.
func (h *TeamAPIHandlers) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/users", h.CreatePlayerHandler).Methods("POST")
	v1.HandleFunc("/users", h.AdvanceLevelHandler).Methods("PUT")

	v1.HandleFunc("/teams", h.CreateTeamHandler).Methods("POST")
	// Literal routes go before /teams/{name} so they are not captured as team names.
	v1.HandleFunc("/teams/random", h.SampleTeamsHandler).Methods("GET")
	v1.HandleFunc("/teams/leave", h.LeaveTeamHandler).Methods("POST")
	v1.HandleFunc("/teams/{name}", h.GetTeamHandler).Methods("GET")
	v1.HandleFunc("/teams/{teamId}/join", h.JoinTeamHandler).Methods("POST")
}
