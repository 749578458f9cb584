package service

import (
	"context"
	"errors"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
)

// teamListLimit caps search and availability listings
const teamListLimit = 10

type teamService struct {
	teams    repository.TeamRepository
	profiles repository.ProfileRepository
	logger   *logger.Logger
}

// NewTeamService creates the team service
func NewTeamService(repos *repository.Repositories, log *logger.Logger) TeamService {
	return &teamService{
		teams:    repos.Team,
		profiles: repos.Profile,
		logger:   log,
	}
}

func teamKind(isEsports bool) string {
	if isEsports {
		return "esports"
	}
	return "normal"
}

// teamError maps repository sentinels onto user-facing errors
func teamError(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrTeamLocked):
		return apperrors.NewConflictError("Team is locked and cannot be modified")
	case errors.Is(err, repository.ErrAlreadyInTeam):
		return apperrors.NewConflictError("You are already in a team of this type")
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFoundError("Team not found")
	case errors.Is(err, repository.ErrInvalidState):
		return apperrors.NewConflictError("You are not a member of this team")
	default:
		return apperrors.NewInternalError("Failed to "+action, err)
	}
}

func (s *teamService) Create(ctx context.Context, profile *domain.Profile, req domain.CreateTeamRequest) (*domain.Team, error) {
	name := strings.TrimSpace(req.TeamName)
	if name == "" {
		return nil, apperrors.NewValidationError("Team name is required", nil)
	}

	if missing := profile.MissingMandatoryFields(); len(missing) > 0 || !profile.OnboardingCompleted {
		return nil, apperrors.NewValidationError("Complete your profile before creating a team", map[string]interface{}{
			"missing_fields": missing,
		})
	}

	if profile.TeamID(req.IsEsports) != nil {
		return nil, apperrors.NewConflictError("You are already in a " + teamKind(req.IsEsports) + " team")
	}

	team := &domain.Team{
		Name:      name,
		LeaderID:  profile.ID,
		IsEsports: req.IsEsports,
	}

	err := s.teams.Create(ctx, team)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.NewValidationError("Team name already taken", map[string]interface{}{
			"field": "team_name",
		})
	}
	if err != nil {
		return nil, teamError(err, "create team")
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":    team.ID,
		"leader_id":  profile.ID,
		"is_esports": team.IsEsports,
	}).Info("Team created")
	return team, nil
}

func (s *teamService) LeaveOrDisband(ctx context.Context, profile *domain.Profile, isEsports bool) (*domain.LeaveResult, error) {
	teamID := profile.TeamID(isEsports)
	if teamID == nil {
		return nil, apperrors.NewNotFoundError("You are not in a " + teamKind(isEsports) + " team")
	}

	team, err := s.teams.GetByID(ctx, *teamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("Team not found")
	}
	if team.IsLocked {
		return nil, apperrors.NewConflictError("Team is locked and cannot be modified")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"team_id":    team.ID,
		"profile_id": profile.ID,
	})

	if team.IsLeader(profile.ID) {
		if err := s.teams.Disband(ctx, team.ID); err != nil {
			return nil, teamError(err, "disband team")
		}
		log.WithField("members", len(team.Members)).Info("Team disbanded")
		return &domain.LeaveResult{Message: "Team disbanded", Disbanded: true}, nil
	}

	if err := s.teams.RemoveMember(ctx, team.ID, profile.ID); err != nil {
		return nil, teamError(err, "leave team")
	}
	log.Info("Member left team")
	return &domain.LeaveResult{Message: "You have left the team"}, nil
}

func (s *teamService) Invite(ctx context.Context, leader *domain.Profile, req domain.InviteRequest) error {
	teamID := leader.TeamID(req.IsEsports)
	if teamID == nil {
		return apperrors.NewNotFoundError("You are not in a " + teamKind(req.IsEsports) + " team")
	}

	team, err := s.teams.GetByID(ctx, *teamID)
	if err != nil {
		return apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return apperrors.NewNotFoundError("Team not found")
	}
	if !team.IsLeader(leader.ID) {
		return apperrors.NewAuthorizationError("Only the Team Leader can invite members")
	}
	if team.IsLocked {
		return apperrors.NewConflictError("Team is locked and cannot be modified")
	}

	invitee, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		return apperrors.NewInternalError("Failed to load profile", err)
	}
	if invitee == nil {
		return apperrors.NewNotFoundError("No user found with that email")
	}
	if invitee.ID == leader.ID {
		return apperrors.NewValidationError("You cannot invite yourself", nil)
	}
	if invitee.TeamID(team.IsEsports) != nil {
		return apperrors.NewConflictError("User is already in a " + teamKind(team.IsEsports) + " team")
	}

	err = s.profiles.AddInvitation(ctx, invitee.ID, team.ID)
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflictError("Invitation already sent")
	}
	if err != nil {
		return apperrors.NewInternalError("Failed to send invitation", err)
	}
	return nil
}

func (s *teamService) AcceptInvitation(ctx context.Context, profile *domain.Profile, teamID string) (*domain.Team, error) {
	if !profile.HasInvitation(teamID) {
		return nil, apperrors.NewNotFoundError("Invitation not found")
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		_ = s.profiles.RemoveInvitation(ctx, profile.ID, teamID)
		return nil, apperrors.NewNotFoundError("Team no longer exists")
	}
	if profile.TeamID(team.IsEsports) != nil {
		return nil, apperrors.NewConflictError("You are already in a " + teamKind(team.IsEsports) + " team")
	}

	joined, err := s.teams.AddMember(ctx, teamID, profile.ID)
	if err != nil {
		return nil, teamError(err, "join team")
	}
	return joined, nil
}

func (s *teamService) DeclineInvitation(ctx context.Context, profile *domain.Profile, teamID string) error {
	if !profile.HasInvitation(teamID) {
		return apperrors.NewNotFoundError("Invitation not found")
	}
	if err := s.profiles.RemoveInvitation(ctx, profile.ID, teamID); err != nil {
		return apperrors.NewInternalError("Failed to decline invitation", err)
	}
	return nil
}

func (s *teamService) MyTeam(ctx context.Context, profile *domain.Profile, isEsports bool) (*domain.MyTeamResponse, error) {
	resp := &domain.MyTeamResponse{ProfileID: profile.ID, Invitations: []*domain.Team{}}

	if teamID := profile.TeamID(isEsports); teamID != nil {
		team, err := s.teams.GetByID(ctx, *teamID)
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to load team", err)
		}
		if team != nil {
			view, err := s.populate(ctx, team)
			if err != nil {
				return nil, err
			}
			resp.Team = view
		}
	}

	invited, err := s.teams.ListByIDs(ctx, profile.Invitations)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load invitations", err)
	}
	for _, t := range invited {
		if t.IsEsports == isEsports {
			resp.Invitations = append(resp.Invitations, t)
		}
	}
	return resp, nil
}

// populate joins leader and member profiles onto a team
func (s *teamService) populate(ctx context.Context, team *domain.Team) (*domain.TeamView, error) {
	members, err := s.profiles.ListByIDs(ctx, team.Members)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team members", err)
	}

	byID := make(map[string]*domain.Profile, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	view := &domain.TeamView{Team: *team, MemberDetails: []domain.TeamMember{}}
	for _, id := range team.Members {
		p, ok := byID[id]
		if !ok {
			continue
		}
		member := domain.TeamMember{ID: p.ID, Username: p.Username, Email: p.Email}
		view.MemberDetails = append(view.MemberDetails, member)
		if id == team.LeaderID {
			leader := member
			view.Leader = &leader
		}
	}
	return view, nil
}

func (s *teamService) Search(ctx context.Context, isEsports bool, query string) ([]*domain.Team, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Available(ctx, isEsports)
	}
	teams, err := s.teams.Search(ctx, isEsports, query, teamListLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to search teams", err)
	}
	return teams, nil
}

func (s *teamService) Available(ctx context.Context, isEsports bool) ([]*domain.Team, error) {
	teams, err := s.teams.ListAvailable(ctx, isEsports, teamListLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list teams", err)
	}
	return teams, nil
}

func (s *teamService) Unlock(ctx context.Context, admin *domain.Profile, teamID string) (*domain.Team, error) {
	if err := s.teams.SetLocked(ctx, teamID, false); err != nil {
		return nil, teamError(err, "unlock team")
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":  teamID,
		"admin_id": admin.ID,
	}).Info("Team unlocked by admin")

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	return team, nil
}
