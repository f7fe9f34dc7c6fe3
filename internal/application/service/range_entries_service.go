package service

import (
	"QuorumKV/internal/domain"
)

type RangeEntriesService struct {
	storage domain.Storage
}

func NewRangeEntriesService(storage domain.Storage) *RangeEntriesService {
	return &RangeEntriesService{
		storage: storage,
	}
}

type RangeEntriesQuery struct {
	Start      []byte
	End        []byte
	Descending bool
}

func (s *RangeEntriesService) Execute(query RangeEntriesQuery) (domain.RecordIterator, error) {
	if query.Descending {
		return s.storage.DescendingRange(query.Start, query.End)
	}
	return s.storage.Range(query.Start, query.End)
}
