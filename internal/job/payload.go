package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rkotak/bookimport/internal/classify"
	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/filestore"
	"github.com/rkotak/bookimport/internal/mapping"
	"github.com/rkotak/bookimport/internal/sheet"
	"github.com/rkotak/bookimport/internal/transform"
)

// FileReader reads uploaded temp files. Satisfied by *filestore.Store.
type FileReader interface {
	Read(bucket, path string) ([]byte, error)
}

// FileWriter persists the built payload. Satisfied by *filestore.Store.
type FileWriter interface {
	Write(path string, data []byte) error
}

// BuildReport accumulates the non-fatal outcomes of a payload build. Its
// error strings become job errors; they never abort the job on their own.
type BuildReport struct {
	SheetsSeen    int
	SheetsSkipped int
	RowsSkipped   int
	ValuesCleaned int
	Errors        []string
	Warnings      []string
}

// Builder turns a job's uploaded files into one transformed Payload.
// Structural failures (unreadable file, unparseable workbook) are fatal;
// per-sheet failures are recorded and the sheet is skipped.
type Builder struct {
	Files      FileReader
	Classifier *classify.Classifier
	Mapper     *mapping.Mapper
}

func (b *Builder) Build(ctx context.Context, files []FileRef) (*entity.Payload, *BuildReport, error) {
	payload := &entity.Payload{}
	report := &BuildReport{}

	for _, f := range files {
		data, err := b.Files.Read(f.Location, f.Path)
		if err != nil {
			return nil, nil, &entity.Failure{
				Kind:  entity.FailureStructural,
				Stage: "read " + f.Name,
				Err:   err,
			}
		}
		sheets, err := sheet.Parse(f.Name, data)
		if err != nil {
			return nil, nil, &entity.Failure{
				Kind:  entity.FailureStructural,
				Stage: "parse " + f.Name,
				Err:   err,
			}
		}

		for _, s := range sheets {
			report.SheetsSeen++
			if sheet.IsAggregate(s) {
				slog.Info("skipping aggregate sheet", "file", f.Name, "sheet", s.Name)
				report.SheetsSkipped++
				continue
			}

			t, ok := b.Classifier.Classify(ctx, s)
			if !ok {
				slog.Info("skipping unclassifiable sheet", "file", f.Name, "sheet", s.Name)
				report.SheetsSkipped++
				continue
			}

			schema, err := b.Mapper.Map(ctx, t, s)
			if err != nil {
				if err := recordFailure(report, s, err); err != nil {
					return nil, nil, err
				}
				continue
			}

			res, err := transform.Apply(t, s.Rows, schema)
			if err != nil {
				if err := recordFailure(report, s, err); err != nil {
					return nil, nil, err
				}
				continue
			}

			mergeRows(payload, t, &res.Rows)
			report.RowsSkipped += res.Skipped
			report.ValuesCleaned += res.Cleaned
			report.Warnings = append(report.Warnings, res.Warnings...)
		}
	}

	for _, t := range payload.ActiveTypes() {
		errs, warnings := transform.Validate(t, payload)
		report.Errors = append(report.Errors, errs...)
		report.Warnings = append(report.Warnings, warnings...)
	}
	return payload, report, nil
}

// recordFailure applies the per-kind policy to one sheet failure: degraded
// and row failures become job errors and the sheet is skipped, structural
// failures propagate to fail the job.
func recordFailure(report *BuildReport, s sheet.Sheet, err error) error {
	if entity.KindOf(err) == entity.FailureStructural {
		return fmt.Errorf("sheet %q: %w", s.Name, err)
	}
	report.SheetsSkipped++
	var me *mapping.Error
	if errors.As(err, &me) {
		// mapping errors already name the sheet
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Errors = append(report.Errors, fmt.Sprintf("sheet %q: %v", s.Name, err))
	}
	return nil
}

// mergeRows appends one sheet's transformed rows into the accumulated
// payload. Multiple sheets of the same type concatenate in file order.
func mergeRows(dst *entity.Payload, t entity.ImportType, src *entity.Payload) {
	switch t {
	case entity.Inventory:
		dst.Inventory = append(dst.Inventory, src.Inventory...)
	case entity.Customers:
		dst.Customers = append(dst.Customers, src.Customers...)
	case entity.Suppliers:
		dst.Suppliers = append(dst.Suppliers, src.Suppliers...)
	case entity.Sales:
		dst.Sales = append(dst.Sales, src.Sales...)
	case entity.Expenses:
		dst.Expenses = append(dst.Expenses, src.Expenses...)
	}
}

// SavePayload writes the payload as JSON under the job's id and returns its
// reference.
func SavePayload(files FileWriter, jobID string, p *entity.Payload) (PayloadRef, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return PayloadRef{}, fmt.Errorf("encode payload: %w", err)
	}
	key := fmt.Sprintf("payloads/%s.json", jobID)
	if err := files.Write(key, data); err != nil {
		return PayloadRef{}, fmt.Errorf("write payload: %w", err)
	}
	return PayloadRef{Bucket: filestore.Bucket, Key: key}, nil
}

// LoadPayload reads a previously saved payload back.
func LoadPayload(files FileReader, ref PayloadRef) (*entity.Payload, error) {
	data, err := files.Read(ref.Bucket, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	p := &entity.Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
