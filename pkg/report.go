package pkg

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// YAMLReportExporter writes recovery reports as YAML documents.
type YAMLReportExporter struct{}

// NewReportExporter creates a report exporter instance.
func NewReportExporter() *YAMLReportExporter {
	return &YAMLReportExporter{}
}

// ExportYAML writes the report to w. A report carries a session identifier
// so reports from repeated runs over the same capture can be told apart;
// one is assigned here if the caller did not set it.
func (e *YAMLReportExporter) ExportYAML(report *RecoveryReport, w io.Writer) error {
	if report.Session == "" {
		report.Session = uuid.New().String()
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode recovery report: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize recovery report: %w", err)
	}
	return nil
}
