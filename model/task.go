package model

import (
	"time"
)

// Task is a reminder record. All instants are stored in UTC; conversion to
// the display timezone happens only at the presentation boundary.
type Task struct {
	ID         string     `firestore:"-" json:"id"`
	Message    string     `firestore:"message" json:"message"`
	SourceID   string     `firestore:"sourceId" json:"sourceId"`
	NotifiedID string     `firestore:"notifiedId" json:"notifiedId"`
	ExpireDate *time.Time `firestore:"expireDate,omitempty" json:"expireDate,omitempty"`
	NotifyDate *time.Time `firestore:"notifyDate,omitempty" json:"notifyDate,omitempty"`
	IsNotified bool       `firestore:"isNotified" json:"isNotified"`
}
