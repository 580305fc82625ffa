// Package mappers converts between persistence models and domain entities.
package mappers

import (
	"github.com/mishbel44/ortp-botik/internal/domain/ticket"
	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
)

func TicketToEntity(model *models.TicketModel) *ticket.Ticket {
	if model == nil {
		return nil
	}
	return &ticket.Ticket{
		IssueKey:  model.IssueKey,
		UserID:    model.UserID,
		Title:     model.Title,
		Status:    ticket.Status(model.Status),
		CreatedAt: model.CreatedAt,
	}
}

func TicketToModel(entity *ticket.Ticket) *models.TicketModel {
	if entity == nil {
		return nil
	}
	return &models.TicketModel{
		IssueKey:  entity.IssueKey,
		UserID:    entity.UserID,
		Title:     entity.Title,
		Status:    entity.Status.String(),
		CreatedAt: entity.CreatedAt,
	}
}

func TicketsToEntities(modelList []*models.TicketModel) []*ticket.Ticket {
	entities := make([]*ticket.Ticket, 0, len(modelList))
	for _, model := range modelList {
		entities = append(entities, TicketToEntity(model))
	}
	return entities
}
