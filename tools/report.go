package tools

import (
	"context"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

var reportHeader = []string{"Time", "Kind", "Value", "Text", "Camera", "Frame"}

// ReportWriterSpec appends the upstream result as a row of an XLSX
// workbook, creating the file with a header row on first write.
func ReportWriterSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryCommunication,
		Kind:        "ReportWriter",
		Description: "appends results to an XLSX report",
		InputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultInputPort, Direction: inspectflow.PortInput, Kind: inspectflow.DataKindValue, Description: "value to record"},
		},
		OutputPorts: []inspectflow.Port{
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "path", Kind: inspectflow.ParamFile, Default: "report.xlsx"},
			{Name: "sheet", Kind: inspectflow.ParamString, Default: "Results"},
		},
		CheckInput: func(in *inspectflow.Artifact) error {
			if !in.Valid() {
				return faults.New(faults.KindImage, "no result to record")
			}
			return nil
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			path := paramString(params, "path", "report.xlsx")
			sheet := paramString(params, "sheet", "Results")

			f, fresh, err := openReport(path, sheet)
			if err != nil {
				return nil, err
			}
			defer f.Close()

			rows, err := f.GetRows(sheet)
			if err != nil {
				return nil, faults.Newf(faults.KindFile, "read %s: %v", path, err)
			}
			row := len(rows) + 1

			values := []any{
				in.Captured.UTC().Format(time.RFC3339),
				string(in.Kind),
				nil, nil, nil, nil,
			}
			switch in.Kind {
			case inspectflow.DataKindValue:
				values[2] = in.Value
			case inspectflow.DataKindString:
				values[3] = in.Text
			}
			if cam, ok := in.Meta["camera"]; ok {
				values[4] = cam
			}
			if idx, ok := in.Meta["frame_index"]; ok {
				values[5] = idx
			}
			for col, v := range values {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, faults.Newf(faults.KindFile, "write cell: %v", err)
				}
			}

			if fresh {
				err = f.SaveAs(path)
			} else {
				err = f.Save()
			}
			if err != nil {
				return nil, faults.Newf(faults.KindFile, "save %s: %v", path, err)
			}
			return &inspectflow.Output{
				Values: map[string]any{"path": path, "row": row},
			}, nil
		},
	}
}

// openReport opens an existing workbook or creates a new one with the
// header row. fresh reports whether SaveAs is needed.
func openReport(path, sheet string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, false, faults.Newf(faults.KindFile, "open %s: %v", path, err)
		}
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				f.Close()
				return nil, false, faults.Newf(faults.KindFile, "sheet %s: %v", sheet, err)
			}
			writeReportHeader(f, sheet)
		}
		return f, false, nil
	}

	f := excelize.NewFile()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, false, faults.Newf(faults.KindFile, "sheet %s: %v", sheet, err)
		}
		f.DeleteSheet("Sheet1")
	}
	writeReportHeader(f, sheet)
	return f, true, nil
}

func writeReportHeader(f *excelize.File, sheet string) {
	for col, title := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
}
