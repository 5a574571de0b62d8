package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ConnectionRequest is a directed request from RequesterID to TargetID.
// PairKey identifies the unordered pair and carries the uniqueness constraint.
type ConnectionRequest struct {
	ID          string           `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(26)"`
	RequesterID string           `json:"requester" bson:"requester" gorm:"index;not null"`
	TargetID    string           `json:"target" bson:"target" gorm:"index;not null"`
	PairKey     string           `json:"-" bson:"pair_key" gorm:"uniqueIndex;not null"`
	Status      ConnectionStatus `json:"status" bson:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updatedAt"`
}

func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

// BeforeCreate derives the pair key so every insert path hits the unique index.
func (c *ConnectionRequest) BeforeCreate(_ *gorm.DB) error {
	c.PairKey = PairKey(c.RequesterID, c.TargetID)
	return nil
}

// Counterpart returns the member on the other side of the request from self.
func (c ConnectionRequest) Counterpart(self string) string {
	if c.RequesterID == self {
		return c.TargetID
	}
	return c.RequesterID
}

// Touches reports whether member is the requester or the target.
func (c ConnectionRequest) Touches(member string) bool {
	return c.RequesterID == member || c.TargetID == member
}

// PairKey returns the same key for (a, b) and (b, a).
// The length prefix keeps ids containing the separator from colliding.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%s|%s", len(a), a, b)
}

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s ConnectionStatus) Terminal() bool {
	return s == ConnectionStatusAccepted || s == ConnectionStatusRejected
}

// Decision is the target's answer to a pending request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Status maps a decision to the status it produces.
func (d Decision) Status() (ConnectionStatus, bool) {
	switch d {
	case DecisionAccept:
		return ConnectionStatusAccepted, true
	case DecisionReject:
		return ConnectionStatusRejected, true
	}
	return "", false
}

// RelationStatus is the relation between two members as seen by one of them.
type RelationStatus string

const (
	RelationNone            RelationStatus = "not_connected"
	RelationPendingOutgoing RelationStatus = "pending"
	RelationPendingIncoming RelationStatus = "received"
	RelationConnected       RelationStatus = "connected"
	RelationDeclined        RelationStatus = "declined"
)

// Side is the role a member played in a request.
type Side string

const (
	SideRequester Side = "requester"
	SideTarget    Side = "target"
)
