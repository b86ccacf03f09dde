package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List users",
		Description: "Returns all registered members. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminAssignRole",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/users/{id}/roles",
		Summary:     "Assign role",
		Description: "Grants a role to a member. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminAssignRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminRevokeRole",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}/roles/{entryId}",
		Summary:     "Revoke role",
		Description: "Removes a role entry from a member. Admin only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminRevokeRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Delete user",
		Description: "Deletes a member account and all its sessions. Admins cannot delete themselves.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeleteUser)
}

// === DTOs ===

// AdminListUsersInput contains parameters for listing users.
type AdminListUsersInput struct {
	Authorization string `header:"Authorization"`
}

// AdminUserResponse contains member data in the admin panel, including the
// role entry IDs needed to revoke individual grants.
type AdminUserResponse struct {
	UserResponse
	RoleEntries map[string]string `json:"role_entries,omitempty" doc:"Role entry ID to role value"`
}

// AdminListUsersResponse contains all registered members.
type AdminListUsersResponse struct {
	Users []AdminUserResponse `json:"users" doc:"Registered members"`
}

// AdminListUsersOutput wraps the list users response for Huma.
type AdminListUsersOutput struct {
	Body AdminListUsersResponse
}

// AssignRoleRequest is the request body for granting a role.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin moderator user" doc:"Role to grant"`
}

// AssignRoleInput wraps the assign role request for Huma.
type AssignRoleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
	Body          AssignRoleRequest
}

// AssignRoleResponse contains the created role entry.
type AssignRoleResponse struct {
	EntryID string `json:"entry_id" doc:"Role entry ID, used to revoke this grant"`
	Role    string `json:"role" doc:"Granted role"`
}

// AssignRoleOutput wraps the assign role response for Huma.
type AssignRoleOutput struct {
	Body AssignRoleResponse
}

// RevokeRoleInput contains parameters for revoking a role entry.
type RevokeRoleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
	EntryID       string `path:"entryId" doc:"Role entry ID"`
}

// AdminDeleteUserInput contains parameters for deleting a user.
type AdminDeleteUserInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
}

// === Handlers ===

func (s *Server) handleAdminListUsers(ctx context.Context, input *AdminListUsersInput) (*AdminListUsersOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	users, err := s.services.Admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]AdminUserResponse, len(users))
	for i, u := range users {
		entries := make(map[string]string, len(u.Roles))
		for entryID, role := range u.Roles {
			entries[entryID] = string(role)
		}
		resp[i] = AdminUserResponse{
			UserResponse: mapUserResponse(u),
			RoleEntries:  entries,
		}
	}

	return &AdminListUsersOutput{Body: AdminListUsersResponse{Users: resp}}, nil
}

func (s *Server) handleAdminAssignRole(ctx context.Context, input *AssignRoleInput) (*AssignRoleOutput, error) {
	actorID, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	role := domain.Role(input.Body.Role)
	if !role.IsValid() {
		return nil, domainerrors.Validationf("unknown role %q", input.Body.Role)
	}

	entryID, err := s.services.Admin.AssignRole(ctx, actorID, input.ID, role)
	if err != nil {
		return nil, err
	}

	return &AssignRoleOutput{
		Body: AssignRoleResponse{EntryID: entryID, Role: string(role)},
	}, nil
}

func (s *Server) handleAdminRevokeRole(ctx context.Context, input *RevokeRoleInput) (*MessageOutput, error) {
	actorID, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.RevokeRole(ctx, actorID, input.ID, input.EntryID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Role revoked"}}, nil
}

func (s *Server) handleAdminDeleteUser(ctx context.Context, input *AdminDeleteUserInput) (*MessageOutput, error) {
	actorID, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.DeleteUser(ctx, actorID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "User deleted"}}, nil
}
