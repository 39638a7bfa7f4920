package server

import (
	"time"

	"github.com/rshade/mosaic/internal/engine"
)

// StatusDocument is one websocket frame: the complete observable state of the
// engine and its regions at a point in time.
type StatusDocument struct {
	// GeneratedAt is when the document was assembled, in UTC.
	GeneratedAt time.Time `json:"generated_at"`
	// Sections lists every defined section in definition order.
	Sections []SectionStatus `json:"sections"`
	// Counts aggregates the section statuses.
	Counts CountsPayload `json:"counts"`
	// Regions lists the declared regions and whether each has been visited.
	Regions []RegionStatus `json:"regions,omitempty"`
}

// SectionStatus is the wire form of one section's state. Fetch payloads are
// deliberately absent; the stream reports progress, not data.
type SectionStatus struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Attempts    uint64     `json:"attempts"`
	Generation  uint64     `json:"generation"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CountsPayload is the wire form of engine.Counts.
type CountsPayload struct {
	Idle    int `json:"idle"`
	Loading int `json:"loading"`
	Loaded  int `json:"loaded"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// RegionStatus is the wire form of one gate region.
type RegionStatus struct {
	ID       string   `json:"id"`
	Active   bool     `json:"active"`
	Default  bool     `json:"default"`
	Sections []string `json:"sections"`
}

// snapshot assembles a StatusDocument from the live engine and gate.
func (s *Server) snapshot() StatusDocument {
	doc := StatusDocument{GeneratedAt: time.Now().UTC()}

	if sections, err := s.eng.Snapshot(); err == nil {
		doc.Sections = make([]SectionStatus, 0, len(sections))
		for _, sec := range sections {
			doc.Sections = append(doc.Sections, newSectionStatus(sec))
		}
	}

	if counts, err := s.eng.Counts(); err == nil {
		doc.Counts = CountsPayload{
			Idle:    counts.Idle,
			Loading: counts.Loading,
			Loaded:  counts.Loaded,
			Failed:  counts.Failed,
			Total:   counts.Total,
		}
	}

	if s.gate != nil {
		def := s.gate.DefaultRegion()
		for _, id := range s.gate.Regions() {
			sections, err := s.gate.Sections(id)
			if err != nil {
				continue
			}
			doc.Regions = append(doc.Regions, RegionStatus{
				ID:       id,
				Active:   s.gate.IsActive(id),
				Default:  id == def,
				Sections: sections,
			})
		}
	}

	return doc
}

func newSectionStatus(sec engine.Section) SectionStatus {
	out := SectionStatus{
		ID:         sec.ID,
		Status:     sec.Status.String(),
		Attempts:   sec.Attempts,
		Generation: sec.Generation,
	}
	if sec.Err != nil {
		out.Error = sec.Err.Error()
	}
	if !sec.StartedAt.IsZero() {
		started := sec.StartedAt
		out.StartedAt = &started
	}
	if !sec.CompletedAt.IsZero() {
		completed := sec.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
