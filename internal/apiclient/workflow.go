package apiclient

import (
	"context"
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"net/http"
	"net/url"
)

// Workflow state is per session and never cached.

type ScanResult struct {
	Package domain.ScannedPackage `json:"package"`
	State   dto.WorkflowResponse  `json:"state"`
}

func workflowPath(sessionID, rest string) string {
	return "/api/workflow/" + url.PathEscape(sessionID) + rest
}

func (c *Client) Workflow(ctx context.Context, sessionID string) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.get(ctx, "", workflowPath(sessionID, ""), nil, &st)
	return st, err
}

func (c *Client) SaveDailyInput(ctx context.Context, sessionID string, req dto.DailyInputRequest) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/input"), req, &st)
	return st, err
}

func (c *Client) Scan(ctx context.Context, sessionID, trackingNumber string, isCOD bool) (ScanResult, error) {
	var res ScanResult
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/scan"), dto.ScanRequest{TrackingNumber: trackingNumber, IsCOD: isCOD}, &res)
	return res, err
}

func (c *Client) RemoveScan(ctx context.Context, sessionID, id string) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodDelete, workflowPath(sessionID, "/scan/"+url.PathEscape(id)), nil, &st)
	return st, err
}

func (c *Client) CompleteScan(ctx context.Context, sessionID string) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/scan/complete"), nil, &st)
	return st, err
}

func (c *Client) MarkDelivered(ctx context.Context, sessionID, id string, req dto.DeliveredRequest) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/delivery/"+url.PathEscape(id)+"/delivered"), req, &st)
	return st, err
}

func (c *Client) MarkPending(ctx context.Context, sessionID, id string, req dto.PendingRequest) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/delivery/"+url.PathEscape(id)+"/pending"), req, &st)
	return st, err
}

func (c *Client) ReturnPending(ctx context.Context, sessionID string, req dto.ReturnRequest) (dto.ReturnResponse, error) {
	var res dto.ReturnResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/pending/return"), req, &res)
	return res, err
}

func (c *Client) Performance(ctx context.Context, sessionID string) (dto.PerformanceResponse, error) {
	var res dto.PerformanceResponse
	err := c.get(ctx, "", workflowPath(sessionID, "/performance"), nil, &res)
	return res, err
}

func (c *Client) ResetWorkflow(ctx context.Context, sessionID string) (dto.WorkflowResponse, error) {
	var st dto.WorkflowResponse
	err := c.send(ctx, http.MethodPost, workflowPath(sessionID, "/reset"), nil, &st)
	return st, err
}
