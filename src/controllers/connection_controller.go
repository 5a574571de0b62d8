package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/theleywin/talentnest-connections/src/connections"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notifier is told about accepted connections. Failures are logged, never returned to the client.
type Notifier interface {
	ConnectionAccepted(ctx context.Context, requesterID, accepterID string) error
}

// ConnectionController exposes the connection lifecycle and its views over HTTP
type ConnectionController struct {
	Manager  *connections.Manager
	Resolver *connections.Resolver
	Members  identity.Directory
	Notifier Notifier
}

type connectionResponse struct {
	ID        string                  `json:"_id"`
	Requester string                  `json:"requester"`
	Target    string                  `json:"target"`
	User      models.UserDto          `json:"user"`
	Side      models.Side             `json:"side"`
	Status    models.ConnectionStatus `json:"status"`
	CreatedAt string                  `json:"createdAt"`
	UpdatedAt string                  `json:"updatedAt"`
}

// SendConnectionRequest sends a connection request from the authenticated user to another user
func (cc *ConnectionController) SendConnectionRequest(c *fiber.Ctx) error {
	// Params point into the request buffer, which fasthttp reuses
	targetUserID := utils.CopyString(c.Params("userId"))
	user := currentUser(c)
	ctx := c.UserContext()

	if targetUserID != user.ID {
		if _, err := cc.Members.FindByID(ctx, targetUserID); err != nil {
			if errors.Is(err, identity.ErrMemberNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("User not found"))
			}
			lib.Log().Error("Error looking up target user", zap.String("target", targetUserID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}
	}

	request, err := cc.Manager.SendRequest(ctx, user.ID, targetUserID)
	lib.RecordCommand("send", outcome(err))
	if err != nil {
		return connectionError(c, err, "Failed to send connection request")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Connection request sent successfully",
		"connection": request,
	})
}

// AcceptConnectionRequest accepts a pending connection request addressed to the authenticated user
func (cc *ConnectionController) AcceptConnectionRequest(c *fiber.Ctx) error {
	return cc.respond(c, c.Params("requestId"), models.DecisionAccept)
}

// RejectConnectionRequest rejects a pending connection request addressed to the authenticated user
func (cc *ConnectionController) RejectConnectionRequest(c *fiber.Ctx) error {
	return cc.respond(c, c.Params("requestId"), models.DecisionReject)
}

// RespondToConnectionRequest accepts or rejects a request named in the body
func (cc *ConnectionController) RespondToConnectionRequest(c *fiber.Ctx) error {
	var body struct {
		RequestID  string `json:"requestId" validate:"required"`
		ActionType string `json:"action_type" validate:"required,oneof=accept reject"`
	}
	if msg, ok := parseBody(c, &body); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(msg))
	}
	return cc.respond(c, body.RequestID, models.Decision(body.ActionType))
}

func (cc *ConnectionController) respond(c *fiber.Ctx, requestID string, decision models.Decision) error {
	user := currentUser(c)
	ctx := c.UserContext()

	request, err := cc.Manager.RespondToRequest(ctx, user.ID, requestID, decision)
	lib.RecordCommand(string(decision), outcome(err))
	if err != nil {
		return connectionError(c, err, "Failed to update connection request")
	}

	if decision == models.DecisionAccept && cc.Notifier != nil {
		if err := cc.Notifier.ConnectionAccepted(ctx, request.RequesterID, user.ID); err != nil {
			// Not critical
			lib.Log().Warn("Error creating notification", zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	message := "Connection accepted successfully"
	if decision == models.DecisionReject {
		message = "Connection request rejected"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    message,
		"connection": request,
	})
}

// GetConnectionRequests returns pending requests received by the authenticated user
func (cc *ConnectionController) GetConnectionRequests(c *fiber.Ctx) error {
	return cc.list(c, cc.Resolver.ListIncomingPending)
}

// GetSentConnectionRequests returns pending requests sent by the authenticated user
func (cc *ConnectionController) GetSentConnectionRequests(c *fiber.Ctx) error {
	return cc.list(c, cc.Resolver.ListOutgoingPending)
}

// GetUserConnections returns the accepted network of the authenticated user
func (cc *ConnectionController) GetUserConnections(c *fiber.Ctx) error {
	return cc.list(c, cc.Resolver.ListNetwork)
}

// GetAllConnections returns every request touching the authenticated user
func (cc *ConnectionController) GetAllConnections(c *fiber.Ctx) error {
	return cc.list(c, cc.Resolver.ListAllTouching)
}

func (cc *ConnectionController) list(c *fiber.Ctx, query func(context.Context, string) ([]connections.Relation, error)) error {
	user := currentUser(c)
	ctx := c.UserContext()

	relations, err := query(ctx, user.ID)
	if err != nil {
		return connectionError(c, err, "Server error")
	}
	response, err := cc.present(ctx, relations)
	if err != nil {
		return connectionError(c, err, "Server error")
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// GetConnectionsOverview returns received requests and the network in one response
func (cc *ConnectionController) GetConnectionsOverview(c *fiber.Ctx) error {
	user := currentUser(c)

	var incoming, network []connections.Relation
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		var err error
		incoming, err = cc.Resolver.ListIncomingPending(ctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		network, err = cc.Resolver.ListNetwork(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return connectionError(c, err, "Server error")
	}

	all := make([]connections.Relation, 0, len(incoming)+len(network))
	all = append(all, incoming...)
	all = append(all, network...)
	presented, err := cc.present(c.UserContext(), all)
	if err != nil {
		return connectionError(c, err, "Server error")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"requests": presented[:len(incoming)],
		"network":  presented[len(incoming):],
	})
}

// GetConnectionStatus returns the connection status between the authenticated user and another user
func (cc *ConnectionController) GetConnectionStatus(c *fiber.Ctx) error {
	targetUserID := c.Params("userId")
	user := currentUser(c)

	body, err := relationBody(c.UserContext(), cc.Resolver, user.ID, targetUserID)
	if err != nil {
		return connectionError(c, err, "Server error")
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// relationBody includes the request id when the caller can act on it
func relationBody(ctx context.Context, resolver *connections.Resolver, self, other string) (fiber.Map, error) {
	status, err := resolver.StatusBetween(ctx, self, other)
	if err != nil {
		return nil, err
	}
	body := fiber.Map{"status": status}
	if status == models.RelationPendingIncoming {
		request, found, err := resolver.FindBetween(ctx, self, other)
		if err != nil {
			return nil, err
		}
		if found {
			body["requestId"] = request.ID
		}
	}
	return body, nil
}

// present joins each relation with the counterpart's display attributes
func (cc *ConnectionController) present(ctx context.Context, relations []connections.Relation) ([]connectionResponse, error) {
	ids := make([]string, 0, len(relations))
	for _, rel := range relations {
		ids = append(ids, rel.CounterpartID)
	}
	members, err := cc.Members.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	response := make([]connectionResponse, 0, len(relations))
	for _, rel := range relations {
		member, ok := members[rel.CounterpartID]
		if !ok {
			member = models.UserDto{ID: rel.CounterpartID}
		}
		response = append(response, connectionResponse{
			ID:        rel.Request.ID,
			Requester: rel.Request.RequesterID,
			Target:    rel.Request.TargetID,
			User:      member,
			Side:      rel.Side,
			Status:    rel.Request.Status,
			CreatedAt: rel.Request.CreatedAt.Format(time.RFC3339),
			UpdatedAt: rel.Request.UpdatedAt.Format(time.RFC3339),
		})
	}
	return response, nil
}

func connectionError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, connections.ErrInvalidOperation):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(err.Error()))
	case errors.Is(err, connections.ErrAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(lib.MessageResponse("A connection request already exists"))
	case errors.Is(err, connections.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Connection request not found"))
	case errors.Is(err, connections.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(lib.MessageResponse("Not authorized to respond to this request"))
	}
	lib.Log().Error(fallback, zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse(fallback))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, connections.ErrInvalidOperation):
		return "invalid"
	case errors.Is(err, connections.ErrAlreadyExists):
		return "exists"
	case errors.Is(err, connections.ErrNotFound):
		return "not_found"
	case errors.Is(err, connections.ErrForbidden):
		return "forbidden"
	}
	return "error"
}
