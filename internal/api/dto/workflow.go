package dto

import "courier-service/internal/workflow"

type DailyInputRequest struct {
	TotalPackages  int `json:"totalPackages" validate:"gt=0"`
	CODPackages    int `json:"codPackages" validate:"gte=0"`
	NonCODPackages int `json:"nonCodPackages" validate:"gte=0"`
}

type ScanRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required,max=64"`
	IsCOD          bool   `json:"isCOD"`
}

type DeliveredRequest struct {
	RecipientName string `json:"recipientName" validate:"required,max=120"`
	ProofPhoto    string `json:"proofPhoto"`
}

type PendingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ReturnRequest struct {
	LeaderName  string `json:"leaderName" validate:"required,max=120"`
	ReturnPhoto string `json:"returnPhoto"`
}

type Guards struct {
	CanProceedToScan        bool `json:"canProceedToScan"`
	CanProceedToDelivery    bool `json:"canProceedToDelivery"`
	CanProceedToPending     bool `json:"canProceedToPending"`
	CanProceedToPerformance bool `json:"canProceedToPerformance"`
}

// WorkflowResponse is the session state returned by every step endpoint.
type WorkflowResponse struct {
	workflow.Snapshot
	Guards   Guards `json:"guards"`
	Advanced bool   `json:"advanced"`
}

func NewWorkflowResponse(s workflow.Snapshot, advanced bool) WorkflowResponse {
	return WorkflowResponse{
		Snapshot: s,
		Guards: Guards{
			CanProceedToScan:        s.CanProceedToScan(),
			CanProceedToDelivery:    s.CanProceedToDelivery(),
			CanProceedToPending:     s.CanProceedToPending(),
			CanProceedToPerformance: s.CanProceedToPerformance(),
		},
		Advanced: advanced,
	}
}

type ScanResponse struct {
	Package any              `json:"package"`
	State   WorkflowResponse `json:"state"`
}

type ReturnResponse struct {
	Returned int              `json:"returned"`
	State    WorkflowResponse `json:"state"`
}

type PerformanceResponse struct {
	SessionID string           `json:"sessionId"`
	Summary   workflow.Summary `json:"summary"`
}
