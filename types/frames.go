package types

// Frame type discriminants for the progress stream per CONTRACT_WIRE.md §8.
const (
	// TransferStartType is the type discriminant for transfer start frames.
	TransferStartType = "transfer_start"
	// TransferProgressType is the type discriminant for progress frames.
	TransferProgressType = "transfer_progress"
	// TransferResultType is the type discriminant for transfer result frames.
	TransferResultType = "transfer_result"
)

// TransferOutcome is the terminal outcome of a transfer.
type TransferOutcome string

const (
	// TransferOutcomeCompleted indicates the transfer finished successfully.
	TransferOutcomeCompleted TransferOutcome = "completed"
	// TransferOutcomeFailed indicates the transfer ended with an error.
	TransferOutcomeFailed TransferOutcome = "failed"
)

// TransferStartFrame announces a transfer on the progress stream.
// Emitted exactly once, before any progress frames.
type TransferStartFrame struct {
	// Type is always "transfer_start" for start frames.
	Type string `msgpack:"type" json:"type"`
	// Version is the strata version emitting the stream.
	Version string `msgpack:"version" json:"version"`
	// TransferID is the unique transfer identifier.
	TransferID string `msgpack:"transfer_id" json:"transfer_id"`
	// Direction is the transfer direction.
	Direction Direction `msgpack:"direction" json:"direction"`
	// Key is the object key or file path being transferred.
	Key string `msgpack:"key" json:"key"`
	// TotalBytes is the number of framed bytes expected to cross the
	// wire, or 0 when unknown.
	TotalBytes int64 `msgpack:"total_bytes" json:"total_bytes"`
}

// TransferProgressFrame reports cumulative transfer progress.
// Emitted at most once per reporting interval.
type TransferProgressFrame struct {
	// Type is always "transfer_progress" for progress frames.
	Type string `msgpack:"type" json:"type"`
	// TransferID is the unique transfer identifier.
	TransferID string `msgpack:"transfer_id" json:"transfer_id"`
	// BytesDone is the number of framed bytes moved so far.
	BytesDone int64 `msgpack:"bytes_done" json:"bytes_done"`
	// TotalBytes is the number of framed bytes expected, or 0 when unknown.
	TotalBytes int64 `msgpack:"total_bytes" json:"total_bytes"`
}

// TransferResultFrame is the terminal frame on a progress stream.
// Exactly one result frame ends every stream, whatever the outcome.
type TransferResultFrame struct {
	// Type is always "transfer_result" for result frames.
	Type string `msgpack:"type" json:"type"`
	// Outcome is the terminal outcome.
	Outcome TransferOutcome `msgpack:"outcome" json:"outcome"`
	// Error is the failure description, present only when Outcome is failed.
	Error string `msgpack:"error,omitempty" json:"error,omitempty"`
	// Summary describes the completed transfer, present only when
	// Outcome is completed.
	Summary *TransferSummary `msgpack:"summary,omitempty" json:"summary,omitempty"`
}
