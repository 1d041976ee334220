package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-register/internal/models"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
	"github.com/noah-isme/attendance-register/pkg/export"
)

// ReportFormat selects the rendered file type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// NotMarkedLabel is shown for students without a record on the reported day.
const NotMarkedLabel = "Not Marked"

// ParseReportFormat accepts csv or pdf (case-insensitive); empty means csv.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Report is a rendered export ready to be sent as a download.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}

type rosterLister interface {
	List(ctx context.Context) ([]models.Student, error)
}

type attendanceReader interface {
	ByDate(ctx context.Context, date string) ([]models.AttendanceRecordWithStudent, bool, error)
	StudentHistory(ctx context.Context, studentID int64) (*models.Student, []models.AttendanceRecord, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportService renders attendance sheets as CSV or PDF.
type ReportService struct {
	students   rosterLister
	attendance attendanceReader
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewReportService constructs a ReportService. Nil renderers fall back to the
// defaults from pkg/export.
func NewReportService(students rosterLister, attendance attendanceReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ReportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, attendance: attendance, csv: csv, pdf: pdf, logger: logger}
}

// DailySheet lists every student with their status on date; students without
// a record are reported as NotMarkedLabel.
func (s *ReportService) DailySheet(ctx context.Context, date string, format ReportFormat) (*Report, error) {
	records, _, err := s.attendance.ByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	roster, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[int64]models.AttendanceRecordWithStudent, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	data := export.Dataset{Headers: []string{"Roll Number", "Name", "Email", "Status", "Remarks"}}
	for _, student := range roster {
		row := map[string]string{
			"Roll Number": student.RollNumber,
			"Name":        student.Name,
			"Email":       student.Email,
			"Status":      NotMarkedLabel,
		}
		if rec, ok := byStudent[student.ID]; ok {
			row["Status"] = string(rec.Status)
			row["Remarks"] = rec.Remarks
		}
		data.Rows = append(data.Rows, row)
	}

	return s.render(data, fmt.Sprintf("Attendance %s", date), fmt.Sprintf("attendance-%s", date), format)
}

// StudentSheet renders one student's history, most recent first.
func (s *ReportService) StudentSheet(ctx context.Context, studentID int64, format ReportFormat) (*Report, error) {
	student, records, err := s.attendance.StudentHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Date", "Status", "Remarks"}}
	for _, rec := range records {
		data.Rows = append(data.Rows, map[string]string{
			"Date":    rec.Date,
			"Status":  string(rec.Status),
			"Remarks": rec.Remarks,
		})
	}
	title := fmt.Sprintf("Attendance history %s (%s)", student.Name, student.RollNumber)
	return s.render(data, title, fmt.Sprintf("attendance-%s", sanitizeFilename(student.RollNumber)), format)
}

func (s *ReportService) render(data export.Dataset, title, basename string, format ReportFormat) (*Report, error) {
	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case ReportFormatPDF:
		body, err = s.pdf.Render(data, title)
		contentType = "application/pdf"
	default:
		format = ReportFormatCSV
		body, err = s.csv.Render(data)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("render report failed", zap.String("report", basename), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &Report{Filename: fmt.Sprintf("%s.%s", basename, format), ContentType: contentType, Body: body}, nil
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
