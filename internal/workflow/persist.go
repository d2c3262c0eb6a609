package workflow

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Collection names one mirrored slice of workflow state.
type Collection string

const (
	CollectionDailyInput        Collection = "dailyPackageData"
	CollectionDailyPackages     Collection = "dailyPackages"
	CollectionScannedPackages   Collection = "scannedPackages"
	CollectionDeliveryPackages  Collection = "deliveryPackages"
	CollectionDeliveredPackages Collection = "deliveredPackages"
	CollectionPendingPackages   Collection = "pendingPackages"
	CollectionStep              Collection = "currentWorkflowStep"
)

// AllCollections lists every mirrored key prefix.
var AllCollections = []Collection{
	CollectionDailyInput,
	CollectionDailyPackages,
	CollectionScannedPackages,
	CollectionDeliveryPackages,
	CollectionDeliveredPackages,
	CollectionPendingPackages,
	CollectionStep,
}

// Key returns the mirror key of collection c for sessionID.
func Key(c Collection, sessionID string) string {
	return string(c) + "_" + sessionID
}

// encode serializes the value held for c in s.
func encode(c Collection, s *Snapshot) (string, error) {
	var v any
	switch c {
	case CollectionDailyInput:
		if s.DailyInput == nil {
			return "null", nil
		}
		v = s.DailyInput
	case CollectionDailyPackages:
		v = nonNil(s.DailyPackages)
	case CollectionScannedPackages:
		v = nonNil(s.ScannedPackages)
	case CollectionDeliveryPackages:
		v = nonNil(s.DeliveryPackages)
	case CollectionDeliveredPackages:
		v = nonNil(s.DeliveredPackages)
	case CollectionPendingPackages:
		v = nonNil(s.PendingPackages)
	case CollectionStep:
		return string(s.Step), nil
	default:
		return "", fmt.Errorf("encode workflow: unknown collection %q", c)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode workflow: %s: %w", c, err)
	}
	return string(b), nil
}

// decode parses raw into the field of s held for c.
// Timestamps come back from their RFC 3339 string form through encoding/json.
func decode(c Collection, raw string, s *Snapshot) error {
	var err error
	switch c {
	case CollectionDailyInput:
		var in *domain.DailyInput
		err = json.Unmarshal([]byte(raw), &in)
		s.DailyInput = in
	case CollectionDailyPackages:
		err = json.Unmarshal([]byte(raw), &s.DailyPackages)
	case CollectionScannedPackages:
		err = json.Unmarshal([]byte(raw), &s.ScannedPackages)
	case CollectionDeliveryPackages:
		err = json.Unmarshal([]byte(raw), &s.DeliveryPackages)
	case CollectionDeliveredPackages:
		err = json.Unmarshal([]byte(raw), &s.DeliveredPackages)
	case CollectionPendingPackages:
		err = json.Unmarshal([]byte(raw), &s.PendingPackages)
	case CollectionStep:
		var step domain.Step
		step, err = domain.ParseStep(raw)
		if err == nil {
			s.Step = step
		}
	default:
		err = fmt.Errorf("unknown collection %q", c)
	}
	return err
}

// load rebuilds a session's state from the mirror.
// Missing keys and values that fail to parse both fall back to the empty
// default; only mirror I/O failures are returned.
func load(ctx context.Context, mirror ports.WorkflowMirror, sessionID string, logger *zap.Logger) (Snapshot, error) {
	s := Snapshot{SessionID: sessionID, Step: domain.StepInput}

	for _, c := range AllCollections {
		raw, ok, err := mirror.Get(ctx, Key(c, sessionID))
		if err != nil {
			return Snapshot{}, fmt.Errorf("load workflow: get %s: %w", c, err)
		}
		if !ok {
			continue
		}

		tmp := s
		if err := decode(c, raw, &tmp); err != nil {
			logger.Warn("discarding unreadable workflow state",
				zap.String("session_id", sessionID),
				zap.String("collection", string(c)),
				zap.Error(err),
			)
			continue
		}
		s = tmp
	}

	return s, nil
}

// save writes the listed collections of s to the mirror, in order.
func save(ctx context.Context, mirror ports.WorkflowMirror, s *Snapshot, changed []Collection) error {
	for _, c := range changed {
		v, err := encode(c, s)
		if err != nil {
			return err
		}
		if err := mirror.Set(ctx, Key(c, s.SessionID), v); err != nil {
			return fmt.Errorf("save workflow: set %s: %w", c, err)
		}
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
