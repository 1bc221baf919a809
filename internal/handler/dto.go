package handler

import (
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

type userDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
}

type contactDTO struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	AssignedWorkerID int64  `json:"assignedWorkerId"`
}

func toContactDTO(c *domain.Contact) contactDTO {
	return contactDTO{ID: c.ID, Name: c.Name, AssignedWorkerID: c.AssignedWorkerID}
}

type sessionDTO struct {
	ID              string     `json:"id"`
	ContactID       int64      `json:"contactId"`
	WorkerID        int64      `json:"workerId"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	ServiceDate     string     `json:"serviceDate"`
	ServiceHour     int        `json:"serviceHour"`
	LastActivityAt  time.Time  `json:"lastActivityAt"`
}

func toSessionDTO(s *domain.Session) sessionDTO {
	return sessionDTO{
		ID:              s.ID,
		ContactID:       s.ContactID,
		WorkerID:        s.WorkerID,
		Status:          s.Status,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DurationSeconds: s.DurationSeconds,
		ServiceDate:     s.ServiceDate,
		ServiceHour:     s.ServiceHour,
		LastActivityAt:  s.LastActivityAt,
	}
}

func toSessionDTOs(sessions []domain.Session) []sessionDTO {
	dtos := make([]sessionDTO, len(sessions))
	for i := range sessions {
		dtos[i] = toSessionDTO(&sessions[i])
	}
	return dtos
}

type entryDTO struct {
	ID              string    `json:"id"`
	ContactID       int64     `json:"contactId"`
	WorkerID        int64     `json:"workerId"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toEntryDTO(e *domain.ServiceEntry) entryDTO {
	return entryDTO{
		ID:              e.ID,
		ContactID:       e.ContactID,
		WorkerID:        e.WorkerID,
		Date:            e.Date,
		DurationMinutes: e.DurationMinutes,
		Category:        e.Category,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toEntryDTOs(entries []domain.ServiceEntry) []entryDTO {
	dtos := make([]entryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i])
	}
	return dtos
}
