// Package access decides who may read a ticket's transcript.
package access

import "github.com/spec-kit/ticket-archiver/internal/domain"

// Requester is the caller asking for a transcript.
type Requester struct {
	UserID domain.UserID
	// GuildID is the guild the request was made from; empty for direct messages.
	GuildID domain.GuildID
	// Member is the requester's membership in GuildID, nil when not a member.
	Member *domain.Member
	Super  bool
}

// CanView applies the transcript access rules in order; the first match wins.
func CanView(req Requester, t *domain.Ticket) bool {
	// the creator can always get their ticket, even from outside the guild
	if t.CreatedBy != nil && t.CreatedBy.ID == req.UserID {
		return true
	}
	if req.GuildID != t.GuildID || req.Member == nil {
		return false
	}
	if req.Super {
		return true
	}
	if req.Member.ManageGuild {
		return true
	}
	for _, role := range req.Member.Roles {
		for _, staff := range t.Category.StaffRoles {
			if role == staff {
				return true
			}
		}
	}
	return false
}
