package apiclient

import (
	"bytes"
	"context"
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"courier-service/internal/session"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

const (
	BucketUsers            = "/api/users"
	BucketPackages         = "/api/packages"
	BucketActivities       = "/api/kurir-activities"
	BucketAttendance       = "/api/attendance"
	BucketApprovals        = "/api/approval-requests"
	BucketPendingApprovals = "/api/approval-requests/pending"
)

type LoginResult struct {
	User    *domain.User `json:"user"`
	Session session.Tab  `json:"session"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.send(ctx, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password}, &res)
	if err == nil && res.User != nil {
		c.UserID = res.User.UserID
	}
	return res, err
}

func (c *Client) SwitchUser(ctx context.Context, sessionID, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.send(ctx, http.MethodPost, "/api/auth/switch", dto.SwitchUserRequest{SessionID: sessionID, Email: email, Password: password}, &res)
	if err == nil && res.User != nil {
		c.UserID = res.User.UserID
	}
	return res, err
}

func (c *Client) Logout(ctx context.Context, sessionID string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/logout", dto.LogoutRequest{SessionID: sessionID}, nil)
}

func (c *Client) Session(ctx context.Context, sessionID string) (session.Tab, error) {
	var tab session.Tab
	err := c.get(ctx, "", "/api/auth/session/"+url.PathEscape(sessionID), nil, &tab)
	return tab, err
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.get(ctx, BucketUsers, "/api/users", nil, &out)
	return out, err
}

// UserByUserID returns nil and no error when no user has that login handle.
func (c *Client) UserByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := c.get(ctx, BucketUsers, "/api/users/"+url.PathEscape(userID), nil, &u)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	var u domain.User
	if err := c.send(ctx, http.MethodPost, "/api/users", req, &u, BucketUsers); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req dto.UpdateUserRequest) (*domain.User, error) {
	var u domain.User
	if err := c.send(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id), req, &u, BucketUsers); err != nil {
		return nil, err
	}
	return &u, nil
}

func kurirQuery(kurirID string) url.Values {
	if kurirID == "" {
		return nil
	}
	return url.Values{"kurirId": {kurirID}}
}

func (c *Client) Packages(ctx context.Context, kurirID string) ([]domain.Shipment, error) {
	var out []domain.Shipment
	err := c.get(ctx, BucketPackages, "/api/packages", kurirQuery(kurirID), &out)
	return out, err
}

func (c *Client) CreatePackage(ctx context.Context, req dto.CreatePackageRequest) (*domain.Shipment, error) {
	var s domain.Shipment
	if err := c.send(ctx, http.MethodPost, "/api/packages", req, &s, BucketPackages); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdatePackage(ctx context.Context, id string, req dto.UpdatePackageRequest) (*domain.Shipment, error) {
	var s domain.Shipment
	if err := c.send(ctx, http.MethodPatch, "/api/packages/"+url.PathEscape(id), req, &s, BucketPackages); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Activities(ctx context.Context, kurirID string) ([]domain.KurirActivity, error) {
	var out []domain.KurirActivity
	err := c.get(ctx, BucketActivities, "/api/kurir-activities", kurirQuery(kurirID), &out)
	return out, err
}

func (c *Client) CreateActivity(ctx context.Context, req dto.CreateActivityRequest) (*domain.KurirActivity, error) {
	var a domain.KurirActivity
	if err := c.send(ctx, http.MethodPost, "/api/kurir-activities", req, &a, BucketActivities); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Attendance(ctx context.Context, kurirID string) ([]domain.Attendance, error) {
	var out []domain.Attendance
	err := c.get(ctx, BucketAttendance, "/api/attendance", kurirQuery(kurirID), &out)
	return out, err
}

func (c *Client) CreateAttendance(ctx context.Context, req dto.CreateAttendanceRequest) (*domain.Attendance, error) {
	var a domain.Attendance
	if err := c.send(ctx, http.MethodPost, "/api/attendance", req, &a, BucketAttendance); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Approvals(ctx context.Context) ([]domain.ApprovalRequest, error) {
	var out []domain.ApprovalRequest
	err := c.get(ctx, BucketApprovals, "/api/approval-requests", nil, &out)
	return out, err
}

func (c *Client) PendingApprovals(ctx context.Context) ([]domain.ApprovalRequest, error) {
	var out []domain.ApprovalRequest
	err := c.get(ctx, BucketPendingApprovals, "/api/approval-requests/pending", nil, &out)
	return out, err
}

func (c *Client) CreateApproval(ctx context.Context, req dto.CreateApprovalRequest) (*domain.ApprovalRequest, error) {
	var a domain.ApprovalRequest
	if err := c.send(ctx, http.MethodPost, "/api/approval-requests", req, &a, BucketApprovals, BucketPendingApprovals); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DecideApproval(ctx context.Context, id string, req dto.DecideApprovalRequest) (*domain.ApprovalRequest, error) {
	var a domain.ApprovalRequest
	if err := c.send(ctx, http.MethodPatch, "/api/approval-requests/"+url.PathEscape(id), req, &a, BucketApprovals, BucketPendingApprovals); err != nil {
		return nil, err
	}
	return &a, nil
}

// UploadDeliveryPhoto posts a proof-of-delivery image for packageID. The
// server marks the package delivered.
func (c *Client) UploadDeliveryPhoto(ctx context.Context, packageID, filename, contentType string, photo io.Reader) (dto.UploadPhotoResponse, error) {
	var res dto.UploadPhotoResponse

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("packageId", packageID)
	_ = mw.WriteField("userId", c.UserID)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return res, fmt.Errorf("api: upload photo: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return res, fmt.Errorf("api: upload photo: read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return res, fmt.Errorf("api: upload photo: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload/delivery-photo", &buf, mw.FormDataContentType())
	if err != nil {
		return res, err
	}
	body, err := c.do(req)
	if err != nil {
		return res, err
	}
	c.cache.Invalidate(BucketPackages)

	if err := json.Unmarshal(body, &res); err != nil {
		return res, fmt.Errorf("api: decode upload response: %w", err)
	}
	return res, nil
}
