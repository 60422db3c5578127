package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Snapshot is the persisted form of the ledger: one entry per claim,
// enough to rebuild the primary map and every derived index by replay.
// Money fields serialize as wire pairs, so amounts round-trip exactly.
type Snapshot struct {
	SavedAt time.Time                `json:"saved_at"`
	Claims  map[string]SnapshotEntry `json:"claims"`
}

// SnapshotEntry is the full persisted state of one claim.
type SnapshotEntry struct {
	Claim          domain.Claim       `json:"claim"`
	Progress       progressRecord     `json:"progress"`
	PatientPayment domain.Money       `json:"patient_payment"`
	Remittance     *domain.Remittance `json:"remittance,omitempty"`
}

// progressRecord uses pointers for the optional timestamps so an
// unreached stage persists as an absent field, not a zero time.
type progressRecord struct {
	SubmittedAt        time.Time  `json:"submitted_at"`
	ResponseReceivedAt *time.Time `json:"response_received_at,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

// Export captures a point-in-time snapshot of the ledger.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{SavedAt: time.Now().UTC(), Claims: make(map[string]SnapshotEntry, len(s.claims))}
	for id, claim := range s.claims {
		progress := s.progress[id]
		entry := SnapshotEntry{
			Claim:          claim,
			Progress:       progressRecord{SubmittedAt: progress.SubmittedAt},
			PatientPayment: s.payments[id],
		}
		if !progress.ResponseReceivedAt.IsZero() {
			at := progress.ResponseReceivedAt
			entry.Progress.ResponseReceivedAt = &at
		}
		if !progress.ClosedAt.IsZero() {
			at := progress.ClosedAt
			entry.Progress.ClosedAt = &at
		}
		if remittance, ok := s.remittances[id]; ok {
			entry.Remittance = &remittance
		}
		snap.Claims[id] = entry
	}
	return snap
}

// WriteSnapshot persists the ledger to path. The write goes through a
// temp file and rename so a crash mid-write cannot truncate the
// previous snapshot.
func (s *Store) WriteSnapshot(path string) error {
	snap := s.Export()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	s.logger.Info().Str("path", path).Int("claims", len(snap.Claims)).Msg("snapshot written")
	return nil
}

// Restore replays a snapshot into the ledger, rebuilding every derived
// index through the normal mutation path. The ledger must be empty.
func (s *Store) Restore(snap Snapshot) error {
	for id, entry := range snap.Claims {
		if entry.Claim.ClaimID != id {
			return fmt.Errorf("snapshot entry %s holds claim %s", id, entry.Claim.ClaimID)
		}
		if err := s.AddClaim(entry.Claim, entry.Progress.SubmittedAt); err != nil {
			return fmt.Errorf("replay claim %s: %w", id, err)
		}
		if entry.Remittance != nil {
			if entry.Progress.ResponseReceivedAt == nil {
				return fmt.Errorf("snapshot claim %s has a remittance but no response timestamp", id)
			}
			if err := s.AddResponse(id, *entry.Remittance, *entry.Progress.ResponseReceivedAt); err != nil {
				return fmt.Errorf("replay remittance for claim %s: %w", id, err)
			}
		}
		switch {
		case entry.Progress.ClosedAt != nil:
			if err := s.MarkFullyPaid(id, entry.PatientPayment, *entry.Progress.ClosedAt); err != nil {
				return fmt.Errorf("replay close for claim %s: %w", id, err)
			}
		case !entry.PatientPayment.IsZero():
			if err := s.AddPatientPayment(id, entry.PatientPayment); err != nil {
				return fmt.Errorf("replay payment for claim %s: %w", id, err)
			}
		}
	}
	return nil
}

// LoadSnapshot reads a snapshot file. A missing file is not an error:
// it returns an empty snapshot so a first boot starts clean.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Snapshot{Claims: map[string]SnapshotEntry{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Claims == nil {
		snap.Claims = map[string]SnapshotEntry{}
	}
	return snap, nil
}
