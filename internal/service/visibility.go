package service

import "github.com/mferrant/casetrack/internal/domain"

// Visibility filters restrict what a caller may observe: an elevated role
// sees everything, anyone else sees only records they own. Ownership is
// always derived from the authenticated caller, never from a
// caller-supplied claim. These run at every read boundary.

// VisibleSessions returns the sessions the caller may observe.
func VisibleSessions(sessions []domain.Session, caller *domain.User) []domain.Session {
	if caller == nil {
		return nil
	}
	if caller.Elevated() {
		return sessions
	}
	visible := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.WorkerID == caller.ID {
			visible = append(visible, s)
		}
	}
	return visible
}

// VisibleEntries returns the service entries the caller may observe.
func VisibleEntries(entries []domain.ServiceEntry, caller *domain.User) []domain.ServiceEntry {
	if caller == nil {
		return nil
	}
	if caller.Elevated() {
		return entries
	}
	visible := make([]domain.ServiceEntry, 0, len(entries))
	for _, e := range entries {
		if e.WorkerID == caller.ID {
			visible = append(visible, e)
		}
	}
	return visible
}

// VisibleContacts returns the contacts the caller may observe.
func VisibleContacts(contacts []domain.Contact, caller *domain.User) []domain.Contact {
	if caller == nil {
		return nil
	}
	if caller.Elevated() {
		return contacts
	}
	visible := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.AssignedWorkerID == caller.ID {
			visible = append(visible, c)
		}
	}
	return visible
}

// VisibleUsers returns the user records the caller may observe.
func VisibleUsers(users []domain.User, caller *domain.User) []domain.User {
	if caller == nil {
		return nil
	}
	if caller.Elevated() {
		return users
	}
	visible := make([]domain.User, 0, 1)
	for _, u := range users {
		if u.ID == caller.ID {
			visible = append(visible, u)
		}
	}
	return visible
}
