// internal/database/credentials.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const credentialsCollection = "credentials"

// CredentialStore keeps the single "admin" credential record in MongoDB.
type CredentialStore struct {
	coll *mongo.Collection
	// recordID pins the document so Save/Load/Clear agree on which record is "the" admin.
	recordID string
}

var _ apiclient.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{coll: db.Collection(credentialsCollection), recordID: "admin"}
}

func (s *CredentialStore) Load(ctx context.Context) (*models.AdminCredentials, error) {
	var creds models.AdminCredentials
	err := s.coll.FindOne(ctx, bson.M{"_id": s.recordID}).Decode(&creds)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apiclient.ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return &creds, nil
}

func (s *CredentialStore) Save(ctx context.Context, creds *models.AdminCredentials) error {
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now().UTC()
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.recordID}, creds, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.recordID}); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// Connect opens a client and pings it, the way the API process expects a ready database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(dbName), nil
}
