package models

import "time"

// TimingPayload is the body delivered to the downstream signal controller.
type TimingPayload struct {
	NSVehicles int  `json:"ns_vehicles"`
	EWVehicles int  `json:"ew_vehicles"`
	NSTime     *int `json:"ns_time,omitempty"`
	EWTime     *int `json:"ew_time,omitempty"`
}

// AxisTimings holds the green time in seconds computed for each axis.
type AxisTimings struct {
	NS int `json:"ns_time"`
	EW int `json:"ew_time"`
}

// Snapshot is a read-only copy of the pipeline state after a processed frame.
type Snapshot struct {
	PipelineID  string      `json:"pipeline_id"`
	FrameSeq    uint64      `json:"frame_seq"`
	ProcessedAt time.Time   `json:"processed_at"`
	Counts      ZoneCount   `json:"counts"`
	NSVehicles  int         `json:"ns_vehicles"`
	EWVehicles  int         `json:"ew_vehicles"`
	Timings     AxisTimings `json:"timings"`
	Calibrated  bool        `json:"calibrated"`
}

// PhaseTiming is one axis of a full signal cycle.
type PhaseTiming struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

// SignalPlan is a complete two-phase signal cycle.
type SignalPlan struct {
	NorthSouth PhaseTiming `json:"north-south"`
	EastWest   PhaseTiming `json:"east-west"`
}

// YellowTime is the fixed amber duration in seconds.
const YellowTime = 4

// NewSignalPlan derives the full cycle from the two green times. Each axis is
// red while the other axis shows green and amber.
func NewSignalPlan(nsGreen, ewGreen int) SignalPlan {
	return SignalPlan{
		NorthSouth: PhaseTiming{Green: nsGreen, Yellow: YellowTime, Red: ewGreen + YellowTime},
		EastWest:   PhaseTiming{Green: ewGreen, Yellow: YellowTime, Red: nsGreen + YellowTime},
	}
}
