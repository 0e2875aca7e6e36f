// internal/app/policy/access/access.go

// Package access implements the authorization decision engine. A request
// handler declares what is being accessed and which relational roles may
// access it (a Context); the engine decides allow or deny for the request's
// principal, consulting group membership through a read-only directory.
//
// The engine owns no state and never mutates anything: same principal,
// same context, same data, same answer.
package access

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// Subject says what kind of resource a Context guards.
type Subject int

const (
	// SubjectGroot admits only the superuser.
	SubjectGroot Subject = iota
	// SubjectUser guards a user resource addressed by Params.UserID.
	SubjectUser
	// SubjectGroup guards a group resource addressed by Params.GroupID.
	SubjectGroup
	// SubjectConversation resolves the required roles dynamically from
	// the per-group conversation grants.
	SubjectConversation
	// SubjectReport resolves dynamically from the per-group report grants.
	SubjectReport
)

// Context is the declarative access requirement for a route. Roles is nil
// for the dynamic subjects (conversation, report), whose role requirement
// lives in group documents rather than in the context.
type Context struct {
	Subject Subject
	Roles   []models.Role
}

// Groot admits only the superuser.
func Groot() Context { return Context{Subject: SubjectGroot} }

// ForUser guards a user resource; roles are checked in the order given.
func ForUser(roles ...models.Role) Context {
	return Context{Subject: SubjectUser, Roles: roles}
}

// ForGroup guards a group resource; roles are checked in the order given.
func ForGroup(roles ...models.Role) Context {
	return Context{Subject: SubjectGroup, Roles: roles}
}

// ForConversation guards a conversation; the permitted roles come from
// Group.Conversations.
func ForConversation() Context { return Context{Subject: SubjectConversation} }

// ForReport guards a report; the permitted roles come from Group.Reports.
func ForReport() Context { return Context{Subject: SubjectReport} }

// Params carries the route parameters relevant to a decision. Unused
// fields stay empty.
type Params struct {
	UserID         string
	GroupID        string
	ConversationID string
	ReportID       string
}

// GroupDirectory is the read-only membership collaborator the engine
// consults. Implementations report a missing group as
// apierr.NotFound("group").
type GroupDirectory interface {
	// GroupByID loads one group.
	GroupByID(ctx context.Context, id string) (models.Group, error)
	// GroupsWithMembers returns the groups in which both users appear as
	// participants.
	GroupsWithMembers(ctx context.Context, userA, userB string) ([]models.Group, error)
	// GroupsForMember returns the groups in which the user participates.
	GroupsForMember(ctx context.Context, userID string) ([]models.Group, error)
}

// Engine decides allow or deny. Allow is a nil error; deny is
// apierr.NotAllowed, or apierr.NotFound when a referenced group had to
// be looked up and does not exist.
type Engine struct {
	dir GroupDirectory
	log *zap.Logger
}

// NewEngine builds an engine over the given directory.
func NewEngine(dir GroupDirectory, logger *zap.Logger) *Engine {
	return &Engine{dir: dir, log: logger}
}

// Authorize applies the decision rules, in priority order:
//
//  1. no principal: deny
//  2. groot principal: allow, before any directory call
//  3. then per-subject rules; anything unmatched denies (fail closed)
func (e *Engine) Authorize(ctx context.Context, p *auth.Principal, ac Context, params Params) error {
	if p == nil {
		return apierr.NotAllowed("authentication required")
	}
	if p.Groot {
		return nil
	}

	switch ac.Subject {
	case SubjectGroot:
		// Groot was handled above; a non-groot principal always fails.
		return apierr.NotAllowed("")

	case SubjectUser:
		return e.authorizeUser(ctx, p, ac.Roles, params)

	case SubjectGroup:
		return e.authorizeGroup(ctx, p, ac.Roles, params)

	case SubjectConversation:
		return e.authorizeConversation(ctx, p, params)

	case SubjectReport:
		return e.authorizeReport(ctx, p, params)
	}

	// Unknown subject means a caller contract violation; never allow.
	e.log.Warn("authorization context with unknown subject denied",
		zap.Int("subject", int(ac.Subject)))
	return apierr.NotAllowed("")
}

// authorizeUser checks the roles in order. RoleSelf matches when the
// target user is the caller. Any other role R matches when the principal
// holds R in some group shared with the target user. Note this checks the
// principal's role, not the target's: a mentor may view a mentee
// regardless of the role under which the mentee is listed.
func (e *Engine) authorizeUser(ctx context.Context, p *auth.Principal, roles []models.Role, params Params) error {
	var shared []models.Group
	loaded := false

	for _, role := range roles {
		if role == models.RoleSelf {
			if params.UserID != "" && params.UserID == p.ID {
				return nil
			}
			continue
		}

		if !loaded {
			var err error
			shared, err = e.dir.GroupsWithMembers(ctx, params.UserID, p.ID)
			if err != nil {
				return err
			}
			loaded = true
		}
		for _, g := range shared {
			if g.Participants[p.ID] == role {
				return nil
			}
		}
	}
	return apierr.NotAllowed("")
}

func (e *Engine) authorizeGroup(ctx context.Context, p *auth.Principal, roles []models.Role, params Params) error {
	g, err := e.dir.GroupByID(ctx, params.GroupID)
	if err != nil {
		return err
	}

	held, isParticipant := g.Participants[p.ID]
	for _, role := range roles {
		if role == models.RoleParticipant {
			if isParticipant {
				return nil
			}
			continue
		}
		if isParticipant && held == role {
			return nil
		}
	}
	return apierr.NotAllowed("")
}

// authorizeConversation allows when some group the principal belongs to
// grants the principal's role access to the conversation.
func (e *Engine) authorizeConversation(ctx context.Context, p *auth.Principal, params Params) error {
	groups, err := e.dir.GroupsForMember(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		granted, ok := g.Conversations[params.ConversationID]
		if !ok {
			continue
		}
		if roleIn(g.Participants[p.ID], granted) {
			return nil
		}
	}
	return apierr.NotAllowed("")
}

// authorizeReport mirrors authorizeConversation against the report grants.
// When Params.UserID is set (rendering another user's report rather than
// inspecting report metadata), the target user must also participate in
// the matched group.
func (e *Engine) authorizeReport(ctx context.Context, p *auth.Principal, params Params) error {
	groups, err := e.dir.GroupsForMember(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		granted, ok := g.Reports[params.ReportID]
		if !ok {
			continue
		}
		if !roleIn(g.Participants[p.ID], granted) {
			continue
		}
		if params.UserID != "" {
			if _, target := g.Participants[params.UserID]; !target {
				continue
			}
		}
		return nil
	}
	return apierr.NotAllowed("")
}

func roleIn(r models.Role, set []models.Role) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}
