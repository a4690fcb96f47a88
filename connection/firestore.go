package connection

import (
	"context"

	"cloud.google.com/go/firestore"
)

// FBConnection creates the Firestore client. Credentials come from the
// standard GOOGLE_APPLICATION_CREDENTIALS environment.
func FBConnection(cfg Config) (*firestore.Client, error) {
	return firestore.NewClientWithDatabase(context.Background(), cfg.GCPProjectID, cfg.FirestoreDatabase)
}
