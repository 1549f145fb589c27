package vectree

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// exportFile is the wire shape of a record export. Only records are
// serialized; indexes are always re-derived on import.
type exportFile struct {
	Library     uuid.UUID      `json:"library"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Dimension   int            `json:"dimension"`
	Metric      string         `json:"metric"`
	Records     []exportRecord `json:"records"`
}

type exportRecord struct {
	ID         uuid.UUID      `json:"id"`
	Vector     []float32      `json:"vector"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	DocumentID uuid.UUID      `json:"document_id"`
}

// ExportRecords writes the library's records to w using the configured
// codec. The index itself is never serialized; the layer above feeds the
// export back through ImportRecords and lets the target rebuild.
func (l *Library) ExportRecords(w io.Writer) error {
	l.mu.RLock()

	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}

	file := exportFile{
		Library:     l.id,
		Name:        l.name,
		Description: l.description,
		Dimension:   l.dimension,
		Metric:      l.metric.String(),
		Records:     make([]exportRecord, 0, len(l.records)),
	}
	for _, rec := range l.records {
		file.Records = append(file.Records, exportRecord{
			ID:         rec.ID,
			Vector:     append([]float32(nil), rec.Vector...),
			Metadata:   rec.Metadata,
			DocumentID: rec.DocumentID,
		})
	}
	l.mu.RUnlock()

	data, err := l.codec.Marshal(file)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// ImportRecords reads an export and adds every record to the library.
// The export's dimension must match; each record is inserted through the
// normal add path, so duplicate ids and bad vectors fail record by record.
func (l *Library) ImportRecords(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var file exportFile
	if err := l.codec.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Dimension != l.dimension {
		return &ErrDimensionMismatch{Expected: l.dimension, Actual: file.Dimension}
	}

	for _, er := range file.Records {
		rec, err := NewRecord(er.ID, er.Vector, er.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", er.ID, err)
		}
		if er.DocumentID != uuid.Nil {
			rec = rec.WithDocument(er.DocumentID)
		}
		if err := l.AddRecord(rec); err != nil {
			return fmt.Errorf("record %s: %w", er.ID, err)
		}
	}

	return nil
}
