// shared/service/teamclient.go
package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Ftotnem/GO-TEAMS/shared/api"
	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/google/uuid"
)

// TeamServiceClient is a typed client for the Team Service HTTP API.
// Errors from the service can be classified with errors.Is against the api.Err* sentinels.
type TeamServiceClient struct {
	apiClient *api.Client
}

// NewTeamClient creates a new Team Service client for baseURL.
func NewTeamClient(baseURL string) *TeamServiceClient {
	return &TeamServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

type createNameRequest struct {
	Name string `json:"name"`
}

// CreatePlayer registers a player. The returned player carries the token used by every other call.
func (c *TeamServiceClient) CreatePlayer(ctx context.Context, name string) (*models.Player, error) {
	player := &models.Player{}
	if err := c.apiClient.Post(ctx, "/api/v1/users", createNameRequest{Name: name}, player); err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", name, err)
	}
	return player, nil
}

// AdvanceLevel reports one level-up for the token's player.
func (c *TeamServiceClient) AdvanceLevel(ctx context.Context, token string) (*models.ProgressionResult, error) {
	result := &models.ProgressionResult{}
	if err := c.apiClient.Put(ctx, "/api/v1/users", nil, result, api.WithAuthorization(token)); err != nil {
		return nil, fmt.Errorf("failed to advance level: %w", err)
	}
	return result, nil
}

// CreateTeam creates a team led by the token's player.
func (c *TeamServiceClient) CreateTeam(ctx context.Context, token, teamName string) (*models.Team, error) {
	team := &models.Team{}
	if err := c.apiClient.Post(ctx, "/api/v1/teams", createNameRequest{Name: teamName}, team, api.WithAuthorization(token)); err != nil {
		return nil, fmt.Errorf("failed to create team %s: %w", teamName, err)
	}
	return team, nil
}

// GetTeam fetches a team by name. Returns an error matching api.ErrNotFound if it does not exist.
func (c *TeamServiceClient) GetTeam(ctx context.Context, teamName string) (*models.Team, error) {
	team := &models.Team{}
	if err := c.apiClient.Get(ctx, "/api/v1/teams/"+url.PathEscape(teamName), team); err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", teamName, err)
	}
	return team, nil
}

// JoinTeam adds the token's player to teamID.
func (c *TeamServiceClient) JoinTeam(ctx context.Context, token, teamID string) (*models.Team, error) {
	parsed, err := uuid.Parse(teamID)
	if err != nil {
		return nil, fmt.Errorf("invalid team id format: %w", err)
	}
	team := &models.Team{}
	path := fmt.Sprintf("/api/v1/teams/%s/join", parsed.String())
	if err := c.apiClient.Post(ctx, path, nil, team, api.WithAuthorization(token)); err != nil {
		return nil, fmt.Errorf("failed to join team %s: %w", teamID, err)
	}
	return team, nil
}

// LeaveTeam removes the token's player from its team.
func (c *TeamServiceClient) LeaveTeam(ctx context.Context, token string) error {
	if err := c.apiClient.Post(ctx, "/api/v1/teams/leave", nil, nil, api.WithAuthorization(token)); err != nil {
		return fmt.Errorf("failed to leave team: %w", err)
	}
	return nil
}

// SampleTeams returns a random selection of joinable teams.
func (c *TeamServiceClient) SampleTeams(ctx context.Context) ([]models.TeamSummary, error) {
	var teams []models.TeamSummary
	if err := c.apiClient.Get(ctx, "/api/v1/teams/random", &teams); err != nil {
		return nil, fmt.Errorf("failed to sample teams: %w", err)
	}
	return teams, nil
}
