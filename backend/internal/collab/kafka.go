package collab

import "time"

// DeltaEvent 每条被接受的增量都会以该结构写入 kafka
type DeltaEvent struct {
	EventType   string    `json:"eventType"` // 固定 "DELTA_APPLIED"
	OperationID string    `json:"operationId"`
	SessionID   string    `json:"sessionId"`
	Delta       string    `json:"delta"`
	Length      int       `json:"length"`
	AppliedAt   time.Time `json:"appliedAt"`
}

const EventDeltaApplied = "DELTA_APPLIED"
