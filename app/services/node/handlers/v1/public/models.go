package public

import (
	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/merkle"
	"github.com/medledger/blockchain/foundation/blockchain/perf"
)

// newRecord is the payload for submitting a record reference. The data hash
// is computed by the caller, record content never crosses this API.
type newRecord struct {
	RecordID string `json:"record_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
	DataHash string `json:"data_hash" validate:"required"`
}

type pendingRecords struct {
	Count   int           `json:"count"`
	Records []database.Tx `json:"records"`
}

type proofRequest struct {
	Proof merkle.Proof `json:"proof" validate:"required"`
}

type estimateRequest struct {
	Operation string  `json:"operation" validate:"required"`
	Workload  float64 `json:"workload" validate:"required,gt=0"`
}

type estimateResponse struct {
	CPU         perf.BenchmarkResult `json:"cpu"`
	GPU         perf.BenchmarkResult `json:"gpu"`
	Improvement float64              `json:"improvement"`
	Costs       perf.CostEfficiency  `json:"costs"`
}
