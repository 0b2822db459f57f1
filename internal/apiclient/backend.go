package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"rental-admin-console/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Operations of the multiplexed add_vehicle endpoint.
const (
	OpPresignedURL         = "getPresignedUrl"
	OpPresignedURLAdmin    = "getPresignedUrlAdmin"
	OpDownloadPresignedURL = "getDownloadPresignedUrl"
	OpGetAllVehicles       = "getAllVehicles"
	OpGetVehicleByID       = "getVehicleById"
	OpDeleteVehicleByID    = "deleteVehicleById"
	OpCreate               = "create"
	OpUpdate               = "update"
)

const (
	addVehiclePath    = "/add_vehicle"
	createVehiclePath = "/v1/vehicle"
)

type vehicleOperation struct {
	Operation string `json:"operation"`
	VehicleID string `json:"vehicleId,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	Key       string `json:"key,omitempty"`
}

// PresignRequest scopes a presigned upload to a draft.
type PresignRequest struct {
	Operation   string
	VehicleID   string
	FileName    string
	ContentType string
}

// PresignUpload asks the backend for a direct-to-storage upload URL.
func (c *Client) PresignUpload(ctx context.Context, req PresignRequest) (*models.PresignedUpload, error) {
	op := req.Operation
	if op == "" {
		op = OpPresignedURL
	}
	var out models.PresignedUpload
	err := c.Call(ctx, http.MethodPost, addVehiclePath, vehicleOperation{
		Operation: op,
		VehicleID: req.VehicleID,
		FileName:  req.FileName,
		FileType:  req.ContentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.URL == "" || out.Key == "" {
		return nil, fmt.Errorf("presign response missing url or key")
	}
	return &out, nil
}

type downloadURL struct {
	URL string `json:"url"`
}

// DownloadURL returns a short-lived read URL for a stored object.
func (c *Client) DownloadURL(ctx context.Context, vehicleID, key string) (string, error) {
	var out downloadURL
	err := c.Call(ctx, http.MethodPost, addVehiclePath, vehicleOperation{
		Operation: OpDownloadPresignedURL,
		VehicleID: vehicleID,
		Key:       key,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) AllVehicles(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, addVehiclePath, vehicleOperation{Operation: OpGetAllVehicles}, &out)
	return out, err
}

func (c *Client) VehicleByID(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, addVehiclePath, vehicleOperation{Operation: OpGetVehicleByID, VehicleID: id}, &out)
	return out, err
}

func (c *Client) DeleteVehicle(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, addVehiclePath, vehicleOperation{Operation: OpDeleteVehicleByID, VehicleID: id}, &out)
	return out, err
}

// CreateListing posts a fully assembled listing.
func (c *Client) CreateListing(ctx context.Context, req *models.ListingRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, createVehiclePath, req, &out)
	return out, err
}

// UpdateListing replaces an existing vehicle through add_vehicle.
func (c *Client) UpdateListing(ctx context.Context, vehicleID string, req *models.ListingRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, addVehiclePath, models.UpdateListingRequest{
		Operation:      OpUpdate,
		VehicleID:      vehicleID,
		ListingRequest: *req,
	}, &out)
	return out, err
}

// --- Admin reads and actions ---

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Call(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) AdminUsers(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/v1/admin/users")
}

func (c *Client) AdminBookings(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/v1/admin/bookings")
}

func (c *Client) User(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/user/"+url.PathEscape(id))
}

func (c *Client) Vehicle(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/vehicle/"+url.PathEscape(id))
}

func (c *Client) BookingHistory(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.get(ctx, "/v1/admin/booking/history/"+url.PathEscape(userID))
}

func (c *Client) ApproveVehicle(ctx context.Context, id string) (json.RawMessage, error) {
	return c.post(ctx, "/v1/admin/approve_vehicle/"+url.PathEscape(id), nil)
}

// DenyVehicle forwards an optional reason; the backend ignores an empty body.
func (c *Client) DenyVehicle(ctx context.Context, id, reason string) (json.RawMessage, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return c.post(ctx, "/v1/admin/deny_vehicle/"+url.PathEscape(id), body)
}

// UserOverview is a profile plus booking history; each half fails independently.
type UserOverview struct {
	Profile      json.RawMessage `json:"profile,omitempty"`
	ProfileError string          `json:"profileError,omitempty"`
	History      json.RawMessage `json:"history,omitempty"`
	HistoryError string          `json:"historyError,omitempty"`
}

// UserOverview fetches both halves concurrently. It only returns an error when both fail.
func (c *Client) UserOverview(ctx context.Context, userID string) (*UserOverview, error) {
	var out UserOverview
	var profileErr, histErr error

	// Branches swallow their own errors so neither cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		out.Profile, profileErr = c.User(ctx, userID)
		return nil
	})
	g.Go(func() error {
		out.History, histErr = c.BookingHistory(ctx, userID)
		return nil
	})
	_ = g.Wait()

	if profileErr != nil {
		out.ProfileError = profileErr.Error()
		c.logger.Warn("user profile fetch failed", zap.String("userID", userID), zap.Error(profileErr))
	}
	if histErr != nil {
		out.HistoryError = histErr.Error()
		c.logger.Warn("booking history fetch failed", zap.String("userID", userID), zap.Error(histErr))
	}
	if profileErr != nil && histErr != nil {
		return &out, profileErr
	}
	return &out, nil
}
