package domain

// NoTimestamp marks a response that carries no value version.
const NoTimestamp int64 = -1

// ReplicatedResponse is what a single replica answers for an operation.
type ReplicatedResponse struct {
	Status    Status
	Payload   []byte
	Timestamp int64
}

func NewResponse(status Status) ReplicatedResponse {
	return ReplicatedResponse{
		Status:    status,
		Timestamp: NoTimestamp,
	}
}

func ResponseFromCell(cell Cell) ReplicatedResponse {
	v := cell.Value()
	if v.IsTombstone() {
		return ReplicatedResponse{Status: StatusNotFound, Timestamp: v.Timestamp()}
	}
	return ReplicatedResponse{Status: StatusOK, Payload: v.Payload(), Timestamp: v.Timestamp()}
}

type responseKey struct {
	status    Status
	timestamp int64
	payload   string
}

func (r ReplicatedResponse) key() responseKey {
	return responseKey{
		status:    r.Status,
		timestamp: r.Timestamp,
		payload:   string(r.Payload),
	}
}

// Reconcile picks the answer given by the largest group of equal
// responses. Groups of the same size are decided by the highest
// timestamp (last write wins), then by arrival order.
func Reconcile(responses []ReplicatedResponse) ReplicatedResponse {
	if len(responses) == 0 {
		return NewResponse(StatusInternalError)
	}
	counts := make(map[responseKey]int, len(responses))
	order := make([]ReplicatedResponse, 0, len(responses))
	for _, r := range responses {
		k := r.key()
		if counts[k] == 0 {
			order = append(order, r)
		}
		counts[k]++
	}
	best := order[0]
	bestCount := counts[best.key()]
	for _, candidate := range order[1:] {
		count := counts[candidate.key()]
		if count > bestCount || (count == bestCount && candidate.Timestamp > best.Timestamp) {
			best, bestCount = candidate, count
		}
	}
	return best
}
