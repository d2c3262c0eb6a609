package workflow

import "courier-service/internal/domain"

// Snapshot is a point-in-time copy of one session's workflow state.
// Guards and transitions are evaluated against a Snapshot so they can be
// exercised without a Store or a mirror.
type Snapshot struct {
	SessionID         string                    `json:"sessionId"`
	Step              domain.Step               `json:"currentStep"`
	DailyInput        *domain.DailyInput        `json:"dailyInput,omitempty"`
	DailyPackages     []domain.Package          `json:"dailyPackages"`
	ScannedPackages   []domain.ScannedPackage   `json:"scannedPackages"`
	DeliveryPackages  []domain.Package          `json:"deliveryPackages"`
	DeliveredPackages []domain.DeliveredPackage `json:"deliveredPackages"`
	PendingPackages   []domain.PendingPackage   `json:"pendingPackages"`
}

// Outstanding counts pending packages not yet returned to the warehouse.
func (s Snapshot) Outstanding() int {
	n := 0
	for _, p := range s.PendingPackages {
		if !p.Returned() {
			n++
		}
	}
	return n
}

// Processed counts delivery items that reached delivered or pending.
func (s Snapshot) Processed() int {
	return len(s.DeliveredPackages) + len(s.PendingPackages)
}

// AllProcessed reports whether every delivery item is delivered or pending.
func (s Snapshot) AllProcessed() bool {
	total := len(s.DeliveryPackages)
	return total > 0 && total == s.Processed()
}

func (s Snapshot) CanProceedToScan() bool { return len(s.DailyPackages) > 0 }

func (s Snapshot) CanProceedToDelivery() bool { return len(s.ScannedPackages) > 0 }

// CanProceedToPending is true while any pending package is still outstanding.
func (s Snapshot) CanProceedToPending() bool { return s.Outstanding() > 0 }

// CanProceedToPerformance is true once every delivery item is processed and
// no pending package remains outstanding.
func (s Snapshot) CanProceedToPerformance() bool {
	return s.AllProcessed() && s.Outstanding() == 0
}

// Next evaluates the forward guard of step against s.
// It returns the following step and true when the guard holds, or step
// unchanged and false. Performance is terminal.
func Next(step domain.Step, s Snapshot) (domain.Step, bool) {
	switch step {
	case domain.StepInput:
		if s.CanProceedToScan() {
			return domain.StepScan, true
		}
	case domain.StepScan:
		if s.CanProceedToDelivery() {
			return domain.StepDelivery, true
		}
	case domain.StepDelivery:
		if !s.AllProcessed() {
			break
		}
		if s.CanProceedToPending() {
			return domain.StepPending, true
		}
		if s.CanProceedToPerformance() {
			return domain.StepPerformance, true
		}
	case domain.StepPending:
		if s.CanProceedToPerformance() {
			return domain.StepPerformance, true
		}
	}
	return step, false
}
