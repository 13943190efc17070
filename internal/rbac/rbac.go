// Package rbac derives a privilege tier from identity-provider role claims
// and answers permission checks for transcript and team operations.
package rbac

import "strings"

type Role string
type Action string

const (
	// RoleAdmin may share unconditionally and bypasses the participant
	// filter on single-transcript reads (not on listing).
	RoleAdmin Role = "admin"
	// RoleOrg covers every authenticated organization role that is neither
	// admin nor member: full-content access and sharing, participant-filtered.
	RoleOrg Role = "org"
	// RoleMember is the most restricted tier: listing only, full content
	// requires an explicit share, no sharing or downloads.
	RoleMember Role = "member"
)

const (
	ActionList        Action = "list"
	ActionViewContent Action = "view_content"
	ActionShare       Action = "share"
	ActionDownload    Action = "download"
	// ActionBypassParticipantFilter applies to single-transcript content
	// reads and downloads only. Listing stays participant-filtered for
	// every role.
	ActionBypassParticipantFilter Action = "bypass_participant_filter"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleOrg:
		return action == ActionList || action == ActionViewContent || action == ActionShare || action == ActionDownload
	case RoleMember:
		return action == ActionList
	default:
		return false
	}
}

// Classify maps the raw organization role claim from the identity provider
// onto a local tier. It is pure and must be re-applied on every session
// issue so a provider-side role change is picked up without local state.
func Classify(orgRole string) Role {
	switch strings.ToLower(strings.TrimSpace(orgRole)) {
	case "admin":
		return RoleAdmin
	case "member", "":
		return RoleMember
	default:
		return RoleOrg
	}
}

// Normalize validates a role string coming back from storage or a token.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleOrg, RoleMember:
		return Role(role)
	default:
		return RoleMember
	}
}
