package rbac

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/salamj/ugrpm/internal/platform/httpx"
)

// Handler exposes the engine as a JSON API.
type Handler struct {
	logger        *slog.Logger
	roles         *Roles
	groups        *Groups
	relationships *Relationships
	resolver      *Resolver
	validate      *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, roles *Roles, groups *Groups, relationships *Relationships, resolver *Resolver) *Handler {
	return &Handler{
		logger:        logger,
		roles:         roles,
		groups:        groups,
		relationships: relationships,
		resolver:      resolver,
		validate:      validator.New(),
	}
}

// MountRoutes registers the API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
		r.Route("/{roleID}", func(r chi.Router) {
			r.Get("/", h.getRole)
			r.Delete("/", h.removeRole)
			r.Get("/groups", h.roleGroups)
			r.Get("/users", h.roleUsers)
		})
	})
	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.listGroups)
		r.Post("/", h.createGroup)
		r.Route("/{groupID}", func(r chi.Router) {
			r.Get("/", h.getGroup)
			r.Put("/", h.updateGroup)
			r.Delete("/", h.removeGroup)
			r.Get("/roles", h.groupRoles)
			r.Post("/roles", h.assignGroupRoles)
			r.Delete("/roles/{roleID}", h.unassignGroupRole)
			r.Get("/users", h.groupUsers)
			r.Post("/users", h.addGroupUsers)
			r.Delete("/users/{userID}", h.removeGroupUser)
		})
	})
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/roles", h.userRoles)
		r.Post("/roles", h.assignUserRoles)
		r.Delete("/roles/{roleID}", h.unassignUserRole)
		r.Get("/groups", h.userGroups)
		r.Post("/groups", h.addUserGroups)
		r.Delete("/groups/{groupID}", h.removeUserGroup)
		r.Get("/effective-roles", h.effectiveRoles)
	})
}

type roleJSON struct {
	ID       int64  `json:"id"`
	Class    string `json:"class"`
	Method   string `json:"method"`
	Identity string `json:"identity"`
}

type groupJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toRoleJSON(role Role) roleJSON {
	return roleJSON{ID: role.ID, Class: role.Class, Method: role.Method, Identity: role.Identity()}
}

func toRolesJSON(roles []Role) []roleJSON {
	out := make([]roleJSON, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleJSON(role))
	}
	return out
}

func toGroupsJSON(groups []Group) []groupJSON {
	out := make([]groupJSON, 0, len(groups))
	for _, group := range groups {
		out = append(out, groupJSON{ID: group.ID, Name: group.Name, Description: group.Description})
	}
	return out
}

/* roles */

type createRoleRequest struct {
	Identity string `json:"identity" validate:"required"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := ParseRole(req.Identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	created, err := h.roles.Create(r.Context(), role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleJSON(created))
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	var (
		roles []Role
		err   error
	)
	switch {
	case r.URL.Query().Get("identity") != "":
		var role *Role
		role, err = h.roles.ByIdentity(r.Context(), r.URL.Query().Get("identity"))
		if err == nil {
			if role != nil {
				roles = []Role{*role}
			} else {
				roles = []Role{}
			}
		}
	case r.URL.Query().Get("class") != "":
		roles, err = h.roles.ByClass(r.Context(), r.URL.Query().Get("class"))
	case r.URL.Query().Get("method") != "":
		roles, err = h.roles.ByMethod(r.Context(), r.URL.Query().Get("method"))
	default:
		roles, err = h.roles.All(r.Context())
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRolesJSON(roles))
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.roles.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleJSON(role))
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.roles.Remove(r.Context(), Role{ID: id}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) roleGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	groups, err := h.relationships.RoleGroups(r.Context(), Role{ID: id})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGroupsJSON(groups))
}

func (h *Handler) roleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	users, err := h.relationships.RoleUsers(r.Context(), Role{ID: id})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if users == nil {
		users = []int64{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

/* groups */

type groupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.groups.Create(r.Context(), Group{Name: req.Name, Description: req.Description})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, groupJSON{ID: created.ID, Name: created.Name, Description: created.Description})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		group, err := h.groups.ByName(r.Context(), name)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, toGroupsJSON([]Group{group}))
		return
	}
	groups, err := h.groups.All(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGroupsJSON(groups))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	group, err := h.groups.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, groupJSON{ID: group.ID, Name: group.Name, Description: group.Description})
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req groupRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.groups.Update(r.Context(), Group{ID: id, Name: req.Name, Description: req.Description})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, groupJSON{ID: updated.ID, Name: updated.Name, Description: updated.Description})
}

func (h *Handler) removeGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	if err := h.groups.Remove(r.Context(), Group{ID: id}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* group <-> role */

type roleIDsRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) groupRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	group, err := h.groups.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	roles, err := h.relationships.GroupRoles(r.Context(), group)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRolesJSON(roles))
}

func (h *Handler) assignGroupRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req roleIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.groups.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.relationships.AssignRolesToGroup(r.Context(), group, roleRefs(req.RoleIDs)); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unassignGroupRole(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	err := h.relationships.UnassignRoleFromGroup(r.Context(), Group{ID: groupID}, Role{ID: roleID})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* user <-> group, group side */

type userIDsRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) groupUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	users, err := h.relationships.GroupUsers(r.Context(), Group{ID: id})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if users == nil {
		users = []int64{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) addGroupUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req userIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.groups.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.relationships.AddUsersToGroup(r.Context(), req.UserIDs, group); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeGroupUser(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.relationships.RemoveUserFromGroup(r.Context(), userID, Group{ID: groupID}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* user side */

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roles, err := h.resolver.DirectRoles(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRolesJSON(roles))
}

func (h *Handler) assignUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req roleIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.relationships.AssignRolesToUser(r.Context(), userID, roleRefs(req.RoleIDs)); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unassignUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.relationships.UnassignRoleFromUser(r.Context(), userID, Role{ID: roleID}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type groupIDsRequest struct {
	GroupIDs []int64 `json:"group_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) userGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	groups, err := h.relationships.UserGroups(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGroupsJSON(groups))
}

func (h *Handler) addUserGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req groupIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.relationships.AddUserToGroups(r.Context(), userID, groupRefs(req.GroupIDs)); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeUserGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	if err := h.relationships.RemoveUserFromGroup(r.Context(), userID, Group{ID: groupID}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) effectiveRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	effective, err := h.resolver.EffectiveRoles(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make(map[string][]roleJSON, len(effective))
	for key, roles := range effective {
		out[key] = toRolesJSON(roles)
	}
	httpx.JSON(w, http.StatusOK, out)
}

/* helpers */

func roleRefs(ids []int64) []RoleRef {
	refs := make([]RoleRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, RoleID(id))
	}
	return refs
}

func groupRefs(ids []int64) []GroupRef {
	refs := make([]GroupRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, GroupID(id))
	}
	return refs
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoleIdentity), errors.Is(err, ErrRoleClassName), errors.Is(err, ErrBadRef):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, ErrRoleNotFound), errors.Is(err, ErrGroupNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateRole), errors.Is(err, ErrDuplicateGroup),
		errors.Is(err, ErrGroupHasRole), errors.Is(err, ErrUserHasRole),
		errors.Is(err, ErrUserInGroup), errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("rbac request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
